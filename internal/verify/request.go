package verify

import (
	"regexp"
	"strings"
	"time"

	"faceattend/internal/storage"
)

// Request is one decoded verification invocation. Immutable once decoded.
type Request struct {
	// AdminID is the owning tenant, the first path segment of the object key.
	AdminID string
	// ProfileID is the claimed identity encoded in the capture file name.
	ProfileID string
	// ObjectKey is the S3 key of the captured photo, host prefix stripped.
	ObjectKey string
	// RawPath is the invocation path exactly as received; it is what gets
	// persisted as the event's photo URL.
	RawPath string
	// CapturedAt is the timestamp encoded in the capture file name. It is
	// client-controlled; the recorder keeps its own server-assigned write
	// time alongside it.
	CapturedAt time.Time
}

// Capture file names follow <admin>/attendance_<profile>_<date>_<time>.<ext>.
// The profile segment may itself contain underscores, so the date and time
// anchor the match from the right.
var capturePattern = regexp.MustCompile(`^attendance_(.+)_(\d{4}-\d{2}-\d{2})_(\d{2}-\d{2}-\d{2})$`)

const captureTimeLayout = "2006-01-02_15-04-05"

// DecodeRequest parses an invocation path into a Request. The path may be a
// full https URL or a bare object key; everything up to and including the
// first ".com/" is treated as a host prefix and stripped. Malformed input
// yields a ProtocolError rather than an ambiguous slicing failure.
func DecodeRequest(path string) (Request, error) {
	key := storage.ObjectKey(path)

	slash := strings.Index(key, "/")
	if slash <= 0 || slash == len(key)-1 {
		return Request{}, &ProtocolError{Path: path, Reason: "expected <admin>/<file> object key"}
	}
	adminID := key[:slash]
	file := key[strings.LastIndex(key, "/")+1:]

	dot := strings.LastIndex(file, ".")
	if dot <= 0 {
		return Request{}, &ProtocolError{Path: path, Reason: "capture file has no extension"}
	}

	m := capturePattern.FindStringSubmatch(file[:dot])
	if m == nil {
		return Request{}, &ProtocolError{Path: path, Reason: "file name does not match attendance_<profile>_<date>_<time>"}
	}

	capturedAt, err := time.Parse(captureTimeLayout, m[2]+"_"+m[3])
	if err != nil {
		return Request{}, &ProtocolError{Path: path, Reason: "invalid capture timestamp"}
	}

	return Request{
		AdminID:    adminID,
		ProfileID:  m[1],
		ObjectKey:  key,
		RawPath:    path,
		CapturedAt: capturedAt,
	}, nil
}
