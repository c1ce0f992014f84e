package roomle

import "github.com/pkg/errors"

var (
	ErrMultipleOrMissingOutput = errors.New("material graph needs exactly one output node")
	ErrUnsupportedMultiInput   = errors.New("multi input sockets are not supported")
	ErrGraphCycle              = errors.New("cycle in shader graph")
	ErrMissingPrincipled       = errors.New("material graph needs exactly one principled shader")
	ErrUnsupportedFormat       = errors.New("unsupported texture type")
	ErrEmptyExport             = errors.New("Empty export! Make sure you have meshes selected.")
	ErrExternalTool            = errors.New("external tool failed")
	ErrMalformedSurface        = errors.New("malformed surface statement")
	ErrInvalidOption           = errors.New("invalid option")
)

// IsStructural reports whether err aborts a single material or mesh
// rather than the whole run.
func IsStructural(err error) bool {
	return errors.Is(err, ErrMultipleOrMissingOutput) ||
		errors.Is(err, ErrUnsupportedMultiInput) ||
		errors.Is(err, ErrGraphCycle) ||
		errors.Is(err, ErrMissingPrincipled)
}
