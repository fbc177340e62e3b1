package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationUnmarshal(t *testing.T) {
	var cfg BlobConfig
	require.NoError(t, yaml.Unmarshal([]byte("upload_ttl: 15m\ndownload_ttl: 1h"), &cfg))
	require.Equal(t, 15*time.Minute, time.Duration(cfg.UploadTTL))
	require.Equal(t, time.Hour, time.Duration(cfg.DownloadTTL))

	require.Error(t, yaml.Unmarshal([]byte("upload_ttl: fifteen"), &cfg))
}

func TestProfilePatchEmpty(t *testing.T) {
	require.True(t, ProfilePatch{}.Empty())
	bio := "x"
	require.False(t, ProfilePatch{Bio: &bio}.Empty())
}
