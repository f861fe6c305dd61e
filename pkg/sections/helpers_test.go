package sections

import (
	"strings"
	"testing"
)

func TestAddOrReplaceSetting(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		key      string
		value    string
		quote    bool
		want     string
	}{
		{
			name:     "append to empty body",
			contents: "",
			key:      "pbs_binpath",
			value:    "/usr/bin",
			quote:    true,
			want:     "pbs_binpath=\"/usr/bin\"\n",
		},
		{
			name:     "replace existing value",
			contents: "pbs_binpath=\"/old\"\nother=1\n",
			key:      "pbs_binpath",
			value:    "/new",
			quote:    true,
			want:     "pbs_binpath=\"/new\"\nother=1\n",
		},
		{
			name:     "replace matches with surrounding whitespace",
			contents: "  pbs_binpath = /old\n",
			key:      "pbs_binpath",
			value:    "/new",
			quote:    false,
			want:     "pbs_binpath=/new\n",
		},
		{
			name:     "append adds missing newline first",
			contents: "existing=1",
			key:      "GRIDMAP",
			value:    "/etc/grid-security/grid-mapfile",
			quote:    false,
			want:     "existing=1\nGRIDMAP=/etc/grid-security/grid-mapfile\n",
		},
		{
			name:     "key prefix does not match",
			contents: "pbs_binpath_extra=1\n",
			key:      "pbs_binpath",
			value:    "/new",
			quote:    false,
			want:     "pbs_binpath_extra=1\npbs_binpath=/new\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addOrReplaceSetting(tt.contents, tt.key, tt.value, tt.quote)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAddOrReplaceSettingIsIdempotent(t *testing.T) {
	once := addOrReplaceSetting("", "sge_root", "/opt/sge", true)
	twice := addOrReplaceSetting(once, "sge_root", "/opt/sge", true)
	if once != twice {
		t.Errorf("Expected idempotent rewrite, got %q then %q", once, twice)
	}
}

func TestRemoveSetting(t *testing.T) {
	contents := "a=1\nGRIDMAP=/etc/grid-security/grid-mapfile\nb=2\n"
	got := removeSetting(contents, "GRIDMAP")
	if got != "a=1\nb=2\n" {
		t.Errorf("Expected GRIDMAP line removed, got %q", got)
	}
	if removeSetting(got, "GRIDMAP") != got {
		t.Error("Removing an absent key must be a no-op")
	}
}

func TestConflictMessageNamesBothFields(t *testing.T) {
	msg := conflictMessage("Misc Services", "authorization_method", "vomsmap",
		"Misc Services", "glexec_location", "/usr")
	for _, want := range []string{"authorization_method", "vomsmap", "glexec_location", "/usr"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Conflict message missing %q: %s", want, msg)
		}
	}
}

func TestJobManagerFlagIsLowerCase(t *testing.T) {
	if got := JobManagerFlag("SLURM"); got != "jobmanager.slurm.enabled" {
		t.Errorf("Expected jobmanager.slurm.enabled, got %s", got)
	}
}
