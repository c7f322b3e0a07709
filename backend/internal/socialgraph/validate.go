package socialgraph

import (
	"errors"
	"reflect"
	"strings"
	"time"

	apperrors "friendmap/backend/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateAuthor checks that an author carries both id and name.
// prefix names the field in the returned error, e.g. "author" or "mentions[2]".
func ValidateAuthor(a Author, channelID string, index int, prefix string) error {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}
	field := prefix
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field = prefix + "." + verrs[0].Field()
	}
	return apperrors.NewInputSchema(channelID, index, field, err)
}

// timedMessage is a message that passed validation and has a parsed instant
type timedMessage struct {
	index int
	msg   *Message
	at    time.Time
}

// timeline returns the messages of a channel eligible for reply inference,
// in scan order. Invalid authors and unparseable timestamps are skipped and logged.
func (e *Engine) timeline(ch Channel) []timedMessage {
	out := make([]timedMessage, 0, len(ch.Messages))
	for i := range ch.Messages {
		m := &ch.Messages[i]
		if err := ValidateAuthor(m.Author, ch.ID, i, "author"); err != nil {
			e.skip(err, ch, i)
			continue
		}
		at, err := ParseTimestamp(m.Timestamp)
		if err != nil {
			e.skip(apperrors.NewMalformedTimestamp(ch.ID, i, m.Timestamp, err), ch, i)
			continue
		}
		out = append(out, timedMessage{index: i, msg: m, at: at})
	}
	return out
}

func (e *Engine) skip(err error, ch Channel, index int) {
	e.logger.Warn("Skipping message",
		zap.String("channel_id", ch.ID),
		zap.String("channel_name", ch.Name),
		zap.Int("index", index),
		zap.Error(err),
	)
}
