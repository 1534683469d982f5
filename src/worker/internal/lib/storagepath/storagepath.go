package storagepath

import "fmt"

// Generator produces the full remote URL for a session's exported files.
type Generator struct {
	Host   string
	Bucket string
}

func (g Generator) GeneratePath(sessionID string, leafPath string) string {
	return fmt.Sprintf("%s/%s/%s/%s", g.Host, g.Bucket, sessionID, leafPath)
}
