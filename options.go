package boxwire

// DecodeOption configures a single Decode call.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	skipEndMarker bool
}

// SkipEndMarkerCheck disables the end-marker assertion, for callers who
// only want to peel one message off the front of a larger stream and will
// validate framing themselves.
func SkipEndMarkerCheck() DecodeOption {
	return func(o *decodeOptions) { o.skipEndMarker = true }
}

// EncodeOption configures a single Encode call.
type EncodeOption func(*encodeOptions)

type encodeOptions struct{}
