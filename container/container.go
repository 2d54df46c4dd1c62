// Package container accumulates parameterized SQL in dialect-neutral form
// and binds provider parameters correctly before execution, grounded on
// the teacher's dialect/sql.Selector/Builder query-accumulation pattern
// (dialect/sql/predicate.go) generalized from a fluent query builder into
// a flat append-and-bind buffer, since SPEC_FULL.md's container is a
// lower-level primitive than ent's query DSL.
package container

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/syssam/dbcore/connstrategy"
	"github.com/syssam/dbcore/dberr"
	"github.com/syssam/dbcore/dialect"
)

// ErrNilArgument is returned by operations that reject a nil/empty
// required argument outright (ReplaceNeutralTokens on a nil sql string).
// It is container-local rather than one of dberr's ten sentinels because
// it is a pure programming-contract violation, never a runtime or setup
// condition.
var ErrNilArgument = fmt.Errorf("container: argument must not be nil")

// ConnectionProvider is the minimal surface a Container needs to execute:
// acquire a connection for a channel and release it afterwards. Both
// dbcontext.Context and txcontext.TransactionContext implement it — a
// transaction-bound container's Release becomes a no-op because the
// transaction, not the container, owns the connection's lifetime.
type ConnectionProvider interface {
	Acquire(ctx context.Context, channel connstrategy.Channel) (*connstrategy.TrackedConnection, error)
	Release(tc *connstrategy.TrackedConnection) error
}

// Container accumulates a single dialect-neutral SQL statement and its
// bound parameters. It is not safe for concurrent use by multiple
// goroutines building the same statement, matching the teacher's
// Selector/Builder (a query is built by one goroutine, then executed).
type Container struct {
	dialect  *dialect.Descriptor
	provider ConnectionProvider
	channel  connstrategy.Channel

	mu      sync.Mutex
	buf     strings.Builder
	params  []*dialect.ParamSpec
	byName  map[string]int // both full ("@p1") and short ("p1") names resolve here
	counter int
}

// New constructs a Container bound to provider and targeting channel (the
// container's "execution_type" in spec.md's vocabulary).
func New(d *dialect.Descriptor, provider ConnectionProvider, channel connstrategy.Channel) *Container {
	return &Container{dialect: d, provider: provider, channel: channel, byName: map[string]int{}}
}

// Dialect returns the descriptor this container builds SQL for.
func (c *Container) Dialect() *dialect.Descriptor { return c.dialect }

// Channel returns the channel (Read/Write) this container executes
// against.
func (c *Container) Channel() connstrategy.Channel { return c.channel }

// Append adds text to the query buffer. A nil/empty text is a no-op and
// returns the container unchanged, so callers can chain unconditionally:
//
//	c.Append("SELECT 1").Append(extraClause)
func (c *Container) Append(text string) *Container {
	if text == "" {
		return c
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.WriteString(text)
	return c
}

// SQL returns the accumulated query text.
func (c *Container) SQL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// shortName strips any leading parameter marker, used as the lookup key
// that works regardless of whether a caller passes "@p1" or "p1".
func (c *Container) shortName(raw string) string {
	return c.NormalizeParameterName(raw)
}

// NormalizeParameterName strips the dialect's marker from raw if present;
// for positional dialects (no named-parameter support) it returns raw
// unchanged, since there is nothing meaningful to strip.
func (c *Container) NormalizeParameterName(raw string) string {
	if !c.dialect.SupportsNamedParameters {
		return raw
	}
	return strings.TrimPrefix(raw, c.dialect.ParameterMarker)
}

// nextAutoName generates "pN" (N monotonic), truncated to the dialect's
// ParameterNameMaxLength when that would otherwise be exceeded.
func (c *Container) nextAutoName() string {
	c.counter++
	name := "p" + strconv.Itoa(c.counter)
	if max := c.dialect.ParameterNameMaxLength; max > 0 && len(name) > max {
		name = name[:max]
	}
	return name
}

// AddParameter generates a unique name when name == "", applies
// CreateParameterSpec then ApplyBindingRules, and returns the full
// dialect-qualified parameter reference (e.g. "@p1", "$1", "?") to embed
// in the query text. It enforces the dialect's MaxParameterLimit before
// any connection would be opened, per spec.md §4.2's boundary case.
func (c *Container) AddParameter(name string, dbType dialect.DBType, value any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit := c.dialect.MaxParameterLimit; limit > 0 && len(c.params)+1 > limit {
		return "", dberr.Wrap(dberr.ErrTooManyParameters, "container: adding parameter would exceed dialect limit of %d", limit)
	}

	short := name
	if short == "" {
		short = c.nextAutoName()
	} else {
		short = c.NormalizeParameterName(short)
	}

	spec := c.dialect.CreateParameterSpec(short, dbType, value)
	logical := inferLogicalType(dbType, value)
	if err := c.dialect.ApplyBindingRules(&spec, logical, value); err != nil {
		return "", err
	}

	c.params = append(c.params, &spec)
	position := len(c.params) // 1-based ordinal of this parameter
	c.byName[short] = position - 1

	return c.parameterRef(short, position), nil
}

// parameterRef renders the token to embed in SQL text for the parameter
// at the given 1-based bind position. MakeParameterName returns only the
// bare marker for positional dialects (it has no notion of parameter
// order); numbered-positional dialects (FeatureNumberedPositionalParams,
// e.g. lib/pq's "$1", "$2", ...) get the ordinal suffix appended here,
// where bind order is known. Anonymous-positional dialects (MySQL,
// MariaDB, Firebird) repeat the bare "?" marker for every parameter.
func (c *Container) parameterRef(short string, position int) string {
	marker := c.dialect.MakeParameterName(short)
	if !c.dialect.SupportsNamedParameters && c.dialect.Features.Has(dialect.FeatureNumberedPositionalParams) {
		return marker + strconv.Itoa(position)
	}
	return marker
}

// SetParameterValue updates an already-bound parameter located by its
// full or short name. Updating to a slice value retypes the parameter to
// DBTypeObject (the "array" binding rule), matching spec.md's
// "updating to an array value retypes to Object".
func (c *Container) SetParameterValue(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.byName[name]
	if !ok {
		idx, ok = c.byName[c.NormalizeParameterName(name)]
	}
	if !ok {
		return dberr.Wrap(dberr.ErrParameterNotFound, "container: parameter %q", name)
	}
	spec := c.params[idx]
	spec.Value = value
	logical := LogicalArray
	if !isSliceValue(value) {
		logical = inferLogicalType(spec.DBType, value)
	}
	return c.dialect.ApplyBindingRules(spec, logical, value)
}

// Parameters returns the bound parameters in bind order. Callers (the
// execute functions) use this to build the driver arg list; it is not
// meant for external mutation.
func (c *Container) Parameters() []*dialect.ParamSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*dialect.ParamSpec, len(c.params))
	copy(out, c.params)
	return out
}

// ReplaceNeutralTokens substitutes the dialect-neutral {Q}/{q}/{S}
// placeholders in sqlText with this dialect's quote prefix, quote
// suffix, and parameter marker respectively.
func ReplaceNeutralTokens(d *dialect.Descriptor, sqlText string) (string, error) {
	if sqlText == "" {
		return "", ErrNilArgument
	}
	r := strings.NewReplacer(
		"{Q}", d.QuotePrefix,
		"{q}", d.QuoteSuffix,
		"{S}", d.ParameterMarker,
	)
	return r.Replace(sqlText), nil
}
