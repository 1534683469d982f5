package cerr

import (
	"fmt"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

type F = map[string]any

// Ctx accumulates structured fields before an error is materialized,
// e.g. cerr.Field("path", path).Wrap(err).Error("Failed to read file")
type Ctx struct {
	fields F
	err    error
}

func Field(key string, value any) Ctx {
	return Ctx{
		fields: F{key: value},
	}
}

func Fields(fields F) Ctx {
	copied := F{}
	for key, value := range fields {
		copied[key] = value
	}

	return Ctx{
		fields: copied,
	}
}

func Wrap(err error) Ctx {
	return Ctx{
		err: err,
	}
}

func Error(msg string) error {
	return Ctx{}.Error(msg)
}

func (c Ctx) Field(key string, value any) Ctx {
	newFields := F{key: value}
	for k, v := range c.fields {
		newFields[k] = v
	}

	return Ctx{
		fields: newFields,
		err:    c.err,
	}
}

func (c Ctx) Wrap(err error) Ctx {
	return Ctx{
		fields: c.fields,
		err:    err,
	}
}

func (c Ctx) Error(msg string) error {
	var err error
	if c.err != nil {
		err = errors.Wrap(c.err, msg)
	} else {
		err = errors.New(msg)
	}

	for key, value := range c.fields {
		err = errors.WithDetail(err, fmt.Sprintf("%s: %+v", key, value))
	}

	return err
}

func Log(err error) {
	log.Error(fmt.Sprintf("%+v", err))

	for _, detail := range errors.GetAllDetails(err) {
		log.Error(detail)
	}
}
