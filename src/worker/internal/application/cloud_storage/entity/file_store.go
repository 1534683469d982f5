package entity

import "context"

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// FileStore reads and writes files addressed by full URL, for example
// https://storage.googleapis.com/bucket/path/to/file.
//counterfeiter:generate . FileStore
type FileStore interface {
	GetFile(ctx context.Context, url string) ([]byte, error)
	WriteFile(ctx context.Context, url string, fileContent []byte) error
}
