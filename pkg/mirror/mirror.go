package mirror

import "github.com/bft-labs/errship/internal/ports"

// Mirror is the durable keyed-blob store the buffer uses for
// high-persistence records. See the package documentation for the
// atomicity contract implementations must honor.
type Mirror = ports.Mirror
