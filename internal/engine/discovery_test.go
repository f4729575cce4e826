package engine

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseInstanceFlag(t *testing.T) {
	cases := map[string]string{
		`"C:\Program Files\Everything\Everything.exe" -startup`:               "",
		`"C:\Program Files\Everything\Everything.exe" -instance findd -startup`: "findd",
		`C:\E\Everything.exe -Instance "my instance" -startup`:                  "my instance",
		`C:\E\Everything.exe -instance 1.5a`:                                    "1.5a",
		`C:\E\Everything-instance.exe -startup`:                                 "",
	}
	for line, want := range cases {
		if got := ParseInstanceFlag(line); got != want {
			t.Fatalf("ParseInstanceFlag(%q) = %q, want %q", line, got, want)
		}
	}
}

func TestParseExecutablePath(t *testing.T) {
	if got := ParseExecutablePath(`"C:\Program Files\Everything\Everything.exe" -startup`); got != `C:\Program Files\Everything\Everything.exe` {
		t.Fatalf("quoted: %q", got)
	}
	if got := ParseExecutablePath(`  /opt/everything -svc`); got != "/opt/everything" {
		t.Fatalf("bare: %q", got)
	}
	if got := ParseExecutablePath("   "); got != "" {
		t.Fatalf("empty: %q", got)
	}
}

func TestIsServiceCommandLine(t *testing.T) {
	for _, line := range []string{`Everything.exe -svc`, `Everything.exe -START-SERVICE`, `Everything.exe /svc`} {
		if !IsServiceCommandLine(line) {
			t.Fatalf("%q should be service mode", line)
		}
	}
	if IsServiceCommandLine(`Everything.exe -svcx -startup`) {
		t.Fatalf("prefix must not match")
	}
}

func TestParseWMICValues(t *testing.T) {
	got := parseWMICValues([]string{"", "CommandLine=a -instance x", "Other=1", "commandline = b "})
	if want := []string{"a -instance x", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
}

func TestDiscoveryListsInstances(t *testing.T) {
	h := newFakeHost("es.exe")
	h.addProc(`"C:\E\Everything.exe" -instance findd -startup`, false)
	h.addProc(`"C:\E\Everything64.exe" -startup`, false)
	h.addProc(`"C:\F\Everything.exe" -startup -svc`, false)
	d := newDiscovery(h, zerolog.Nop(), defaultDiscoverTimeout)
	ctx := context.Background()

	if !d.IsEngineRunningAnywhere(ctx) {
		t.Fatalf("engine should be running")
	}
	if ids := d.ListRunningInstanceIds(ctx); !reflect.DeepEqual(ids, []string{"findd", ""}) {
		t.Fatalf("ids %v", ids)
	}
	if !d.IsInstanceRunning(ctx, "findd") || d.IsInstanceRunning(ctx, "other") {
		t.Fatalf("instance lookup wrong")
	}
	if !d.IsInstanceRunning(ctx, "") {
		t.Fatalf("unlabeled lookup should match any engine")
	}
	if !d.IsServiceRunning(ctx) {
		t.Fatalf("service process not detected")
	}
	infos := d.ListRunningInstances(ctx)
	if infos[1].ExecutablePath != `C:\E\Everything64.exe` || infos[1].Instance != "" {
		t.Fatalf("info %+v", infos[1])
	}
}

func TestDiscoveryFallsBackToWMIC(t *testing.T) {
	h := newFakeHost("es.exe")
	h.psFails = true
	h.addProc(`"C:\E\Everything.exe" -instance w`, false)
	d := newDiscovery(h, zerolog.Nop(), defaultDiscoverTimeout)
	if ids := d.ListRunningInstanceIds(context.Background()); !reflect.DeepEqual(ids, []string{"w"}) {
		t.Fatalf("ids %v", ids)
	}
	if d.source != sourceWMIC || d.count != 1 {
		t.Fatalf("source bookkeeping %s/%d", d.source, d.count)
	}
}

func TestDiscoveryNothingRunning(t *testing.T) {
	d := newDiscovery(newFakeHost("es.exe"), zerolog.Nop(), defaultDiscoverTimeout)
	ctx := context.Background()
	if d.IsEngineRunningAnywhere(ctx) || len(d.ListRunningInstances(ctx)) != 0 {
		t.Fatalf("expected nothing running")
	}
}
