package codec

// Bytes stores []byte bodies unchanged.
type Bytes struct{}

func (Bytes) ID() byte                        { return IDBytes }
func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores string bodies as UTF-8 bytes without validation.
type String struct{}

func (String) ID() byte                        { return IDString }
func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
