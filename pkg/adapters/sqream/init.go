// This file registers the SQream adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/sqreamsql/pkg/adapters/sqream"

package sqream

import (
	"log/slog"

	"github.com/leapstack-labs/sqreamsql/pkg/adapter"
	sqdialect "github.com/leapstack-labs/sqreamsql/pkg/adapters/sqream/dialect"
)

func init() {
	factory := func(logger *slog.Logger) adapter.Adapter { return New(logger) }
	adapter.Register(sqdialect.Name, factory)
	adapter.Register(sqdialect.Alias, factory)
}
