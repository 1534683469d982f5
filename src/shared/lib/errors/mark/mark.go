package mark

import "github.com/cockroachdb/errors"

func Wrap(err error, marker error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), marker)
}

func Message(marker error, msg string) error {
	return errors.Mark(errors.New(msg), marker)
}
