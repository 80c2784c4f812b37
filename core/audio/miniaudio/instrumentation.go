package miniaudio

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/deltamod3/aida-voice-agent/core/audio/miniaudio"

var logger = otelslog.NewLogger(scopeName)
