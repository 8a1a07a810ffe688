package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name    string
		version string
		bi      *debug.BuildInfo
		want    Info
	}{
		{
			name:    "no build info",
			version: "dev",
			want:    Info{Version: "dev"},
		},
		{
			name:    "vcs settings",
			version: "1.4.0",
			bi: &debug.BuildInfo{
				GoVersion: "go1.26.0",
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			want: Info{Version: "1.4.0", Commit: "0123456", Dirty: true, GoVersion: "go1.26.0"},
		},
		{
			name:    "module version used for dev builds",
			version: "dev",
			bi: &debug.BuildInfo{
				GoVersion: "go1.26.0",
				Main:      debug.Module{Version: "v0.3.1"},
			},
			want: Info{Version: "v0.3.1", GoVersion: "go1.26.0"},
		},
		{
			name:    "devel module version ignored",
			version: "dev",
			bi:      &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			want:    Info{Version: "dev"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := fromBuildInfo(tc.version, tc.bi); got != tc.want {
				t.Errorf("fromBuildInfo() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", Commit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", Commit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tc := range tests {
		if got := tc.info.Short(); got != tc.want {
			t.Errorf("Short() = %q, want %q", got, tc.want)
		}
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" {
		t.Error("expected a version")
	}
	if info.GoVersion == "" {
		t.Error("expected go version from embedded build info")
	}
}
