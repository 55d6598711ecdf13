package codec

import (
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type vm struct {
	Name  string   `json:"name" cbor:"name" msgpack:"name"`
	CPU   int      `json:"cpu" cbor:"cpu" msgpack:"cpu"`
	Disks []string `json:"disks" cbor:"disks" msgpack:"disks"`
}

func TestStructCodecs(t *testing.T) {
	in := vm{Name: "web-1", CPU: 4, Disks: []string{"os", "data"}}
	codecs := map[string]Codec[vm]{
		"json":    JSON[vm]{},
		"cbor":    MustCBOR[vm](CBOROptions{Deterministic: true}),
		"msgpack": Msgpack[vm]{},
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			b, err := c.Encode(in)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			out, err := c.Decode(b)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Name != in.Name || out.CPU != in.CPU || len(out.Disks) != 2 || out.Disks[1] != "data" {
				t.Fatalf("got %+v", out)
			}
		})
	}
}

func TestIDsAreDistinct(t *testing.T) {
	ids := []byte{
		Bytes{}.ID(), String{}.ID(), JSON[vm]{}.ID(), MustCBOR[vm](CBOROptions{}).ID(),
		Msgpack[vm]{}.ID(), NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }).ID(),
	}
	seen := map[byte]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate codec id %#x", id)
		}
		seen[id] = true
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("image-42"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.GetValue() != "image-42" {
		t.Fatalf("got %q", out.GetValue())
	}
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	if c.ID() != IDString {
		t.Fatalf("Limit must keep the inner id")
	}
	if v, err := c.Decode([]byte("abcd")); err != nil || v != "abcd" {
		t.Fatalf("at limit: got %q, %v", v, err)
	}
	_, err := c.Decode([]byte("abcde"))
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("over limit: got %v", err)
	}

	off := Limit[string]{Inner: String{}}
	if _, err := off.Decode([]byte(strings.Repeat("x", 1<<16))); err != nil {
		t.Fatalf("disabled limit: %v", err)
	}
}

func TestBytesAndString(t *testing.T) {
	if b, _ := (Bytes{}).Decode([]byte{1, 2}); len(b) != 2 {
		t.Fatalf("bytes: got %v", b)
	}
	if s, _ := (String{}).Decode([]byte("x")); s != "x" {
		t.Fatalf("string: got %q", s)
	}
}

func TestCBORRejectsDuplicateKeys(t *testing.T) {
	c := MustCBOR[map[string]int](CBOROptions{})
	dup := []byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02} // {"a":1,"a":2}
	if _, err := c.Decode(dup); err == nil {
		t.Fatalf("expected duplicate key error")
	}
	if _, err := NewCBOR[vm](CBOROptions{MaxArrayElements: 1}); err == nil {
		t.Fatalf("expected error for out of range MaxArrayElements")
	}
}
