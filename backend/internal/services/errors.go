package services

import apperrors "friendmap/backend/pkg/errors"

// ErrNoSnapshotStore is returned by Load when snapshots are disabled
var ErrNoSnapshotStore = apperrors.NewBaseError(apperrors.ErrorTypeConfig, "snapshot store not configured", nil)
