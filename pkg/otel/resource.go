// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"runtime/debug"
	"sync"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	serviceName    = "regexop"
	unknownVersion = "unknown"
	develVersion   = "(devel)"
)

// instanceID tells apart the processes exporting under the same service name.
var instanceID = xid.New().String()

func newResource() *resource.Resource {
	return resource.NewSchemaless(
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(buildVersion()),
		semconv.ServiceInstanceIDKey.String(instanceID),
	)
}

// buildVersion prefers the module version of the binary, falling back to
// the vcs revision for development builds.
var buildVersion = sync.OnceValue(func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return unknownVersion
	}
	return versionFromBuildInfo(info)
})

func versionFromBuildInfo(info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != develVersion {
		return v
	}

	revision, modified := "", false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	switch {
	case revision == "":
		return unknownVersion
	case modified:
		return revision + "-dirty"
	default:
		return revision
	}
}
