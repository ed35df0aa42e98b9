// README: Monthly quota of assistant answer queries per rider.
package aiusage

import "errors"

// ErrInsufficientTokens is returned when a rider has no queries left for the current month.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DefaultTokens is the number of answer queries granted per month.
const DefaultTokens = 100

const monthLayout = "2006-01"
