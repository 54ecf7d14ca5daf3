package crypto

import (
	"testing"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		ok     bool
	}{
		{"zero chunk size", Params{0, 0, MinChunks - 1}, false},
		{"includable data too small", Params{1, 0, 0}, false},
		{"includable chunk not smaller than chunk", Params{10, 10, 10}, false},
		{"includable data overlaps chunked regime", Params{10, 0, 10*MinChunks + 1}, false},
		{"includable data at regime boundary", Params{10, 9, 10 * MinChunks}, false},
		{"negative includable chunk", Params{10, -1, 10}, false},
		{"minimal valid", Params{1, 0, 2}, true},
		{"defaults", Params{1 << 18, 1 << 8, 1 << 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("default params must validate: %v", err)
	}
	if p.MaxChunkSize != 262144 {
		t.Errorf("MaxChunkSize = %d, want 262144", p.MaxChunkSize)
	}
	if p.MaxIncludableChunkSize != 256 {
		t.Errorf("MaxIncludableChunkSize = %d, want 256", p.MaxIncludableChunkSize)
	}
	if p.MaxIncludableDataSize != 1024 {
		t.Errorf("MaxIncludableDataSize = %d, want 1024", p.MaxIncludableDataSize)
	}
}

func TestSelfEncryptionType_Bits(t *testing.T) {
	if Obfuscate3AES256.Compression() != CompressionBitGzip {
		t.Error("production mode must carry the gzip bit")
	}
	if Obfuscate3AES256.Obfuscation() != ObfuscationBitRepeated {
		t.Error("production mode must carry the repeated-pad bit")
	}
	if Obfuscate3AES256.Crypto() != CryptoBitAES256 {
		t.Error("production mode must carry the AES-256 bit")
	}
	if v := uint32(Obfuscate3AES256); v != 0x0111 {
		t.Errorf("Obfuscate3AES256 = %#x, want 0x0111", v)
	}
}
