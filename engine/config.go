package engine

import "log/slog"

// EngineConfig holds configuration options for the recurrence engine.
type EngineConfig struct {
	// CacheCapacity bounds the number of parsed rules kept in memory.
	CacheCapacity int

	// Logger receives operation failures and cache diagnostics. When nil,
	// logs are discarded.
	Logger *slog.Logger
}

// DefaultEngineConfig provides sensible defaults for production use.
var DefaultEngineConfig = EngineConfig{
	CacheCapacity: 1000,
}

// HighPerformanceConfig keeps more parsed rules resident, for callers
// juggling many distinct tasks.
var HighPerformanceConfig = EngineConfig{
	CacheCapacity: 5000,
}

// LowMemoryConfig is optimized for memory-constrained environments.
var LowMemoryConfig = EngineConfig{
	CacheCapacity: 100,
}

// maxEnumeration is the hard ceiling on preview-style enumeration. It
// bounds worst-case work against unterminated rules regardless of the
// window or limit a caller asks for.
const maxEnumeration = 500
