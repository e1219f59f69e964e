package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	sql := "SELECT * FROM events WHERE dt = '2024-06-15'"
	envelope, err := Compress(sql)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := Decompress(envelope)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if out != sql {
		t.Errorf("round trip: got %q, want %q", out, sql)
	}
}

func TestChecksumDeterministic(t *testing.T) {
	sql := "SELECT 1"
	c1, err := Checksum(sql)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := Checksum(sql)
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Errorf("checksum not deterministic: %s != %s", c1, c2)
	}
}

func TestChecksumDiffersOnContent(t *testing.T) {
	c1, err := Checksum("SELECT 1")
	if err != nil {
		t.Fatal(err)
	}
	c2, err := Checksum("SELECT 2")
	if err != nil {
		t.Fatal(err)
	}
	if c1 == c2 {
		t.Errorf("different inputs produced identical checksum")
	}
}

func TestChecksumOverEnvelopeNotPlaintext(t *testing.T) {
	sql := "SELECT 1"
	plainSum, err := Checksum(sql)
	if err != nil {
		t.Fatal(err)
	}
	envelope, err := Compress(sql)
	if err != nil {
		t.Fatal(err)
	}
	envelopeSum, err := Checksum(envelope)
	if err != nil {
		t.Fatal(err)
	}
	// Checksum(sql) is the SHA-256 of Compress(sql), not of sql itself.
	digest := sha256.Sum256([]byte(envelope))
	if want := hex.EncodeToString(digest[:]); plainSum != want {
		t.Errorf("Checksum(%q) = %s, want SHA-256 of its envelope %s", sql, plainSum, want)
	}
	// Hashing the envelope again therefore gives a different digest.
	if plainSum == envelopeSum {
		t.Errorf("checksum should be over the compressed envelope, not plaintext")
	}
}

func TestComputeTripleIndependence(t *testing.T) {
	triple, err := ComputeTriple("SELECT 1", "[]", "version: 1")
	if err != nil {
		t.Fatal(err)
	}
	if triple.SQL == triple.Schema || triple.Schema == triple.YAML || triple.SQL == triple.YAML {
		t.Errorf("triple components should be independent checksums: %+v", triple)
	}
}

func TestDecompressRejectsInvalidBase64(t *testing.T) {
	if _, err := Decompress("not valid base64!!!"); err == nil {
		t.Errorf("expected error decoding invalid base64")
	}
}
