package static

import _ "embed"

// APIMd contains the embedded api.md reference for API clients.
//
//go:embed api.md
var APIMd string
