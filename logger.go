package taxjar

import "github.com/recheej/taxjar-go/transport"

// Logger is the structured logger used by Client. Build one with
// transport.NewZapLogger.
type Logger = transport.Logger
