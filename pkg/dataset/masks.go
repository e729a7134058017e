package dataset

// masks.go - character and email masking
//
// Masking compiles to plain SQL expressions over the canonical table, so
// the engine applies it set-at-a-time. Numeric bases are cast to VARCHAR
// first; a leading minus sign on an integral value is preserved and the
// digits after it are what gets masked.

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/dataveil/dataveil/pkg/adapter"
)

// DefaultMaskChar is the fill character used when MaskOptions.Char is empty.
const DefaultMaskChar = "×"

// defaultMailDomains is the candidate pool used when domain masking is
// requested without explicit replacement or choices.
var defaultMailDomains = []string{"example.com", "example.org", "example.net"}

// MaskOptions controls character masking.
type MaskOptions struct {
	// Left is the number of characters masked from the start.
	Left int
	// Right is the number of characters masked from the end.
	Right int
	// Char is the fill character. Only the first rune is used; empty
	// means DefaultMaskChar.
	Char string
}

func (o MaskOptions) fill() string {
	if o.Char == "" {
		return DefaultMaskChar
	}
	return string([]rune(o.Char)[0])
}

// maskExpr builds the masking SQL expression for the VARCHAR expression v.
func maskExpr(v string, o MaskOptions) string {
	core := func(x string) string {
		return fmt.Sprintf(
			`CASE WHEN %d >= length(%s) THEN repeat(%s, length(%s))
			 ELSE repeat(%s, %d) || substr(%s, %d, length(%s) - %d) || repeat(%s, %d) END`,
			o.Left+o.Right, x, quoteLiteral(o.fill()), x,
			quoteLiteral(o.fill()), o.Left, x, o.Left+1, x, o.Left+o.Right, quoteLiteral(o.fill()), o.Right)
	}
	return fmt.Sprintf(
		`CASE WHEN %s IS NULL THEN NULL
		 WHEN regexp_matches(%s, '^-[0-9]+$') THEN '-' || (%s)
		 ELSE %s END`,
		v, v, core(fmt.Sprintf("substr(%s, 2)", v)), core(v))
}

// AddMaskedColumn appends a VARCHAR column holding the masked rendering of
// base. When Left+Right covers the whole value, every character is masked.
// newName empty defaults to "masked_{base}".
func (d *Dataset) AddMaskedColumn(ctx context.Context, base, newName string, opts MaskOptions) error {
	if opts.Left < 0 || opts.Right < 0 {
		return fmt.Errorf("mask counts must be non-negative, got left=%d right=%d", opts.Left, opts.Right)
	}
	col, err := d.resolveColumn(ctx, base)
	if err != nil {
		return err
	}
	v, err := maskableExpr(col)
	if err != nil {
		return err
	}
	if newName == "" {
		newName = "masked_" + col.Name
	}

	return d.addComputedColumn(ctx, newName, "VARCHAR", maskExpr(v, opts))
}

// MaskColumn masks base in place, replacing its values with the masked
// rendering. The column name and position are preserved; its type becomes
// VARCHAR.
func (d *Dataset) MaskColumn(ctx context.Context, base string, opts MaskOptions) error {
	staged := d.tempName("mask")
	return d.replaceViaStaged(ctx, base, staged, func() error {
		return d.AddMaskedColumn(ctx, base, staged, opts)
	})
}

// maskableExpr returns the SQL expression yielding col as VARCHAR, or an
// error when the column type cannot be masked.
func maskableExpr(col adapter.Column) (string, error) {
	t := strings.ToUpper(col.Type)
	switch {
	case strings.Contains(t, "INT"):
		return fmt.Sprintf("CAST(%s AS VARCHAR)", quoteIdent(col.Name)), nil
	case strings.Contains(t, "CHAR"), strings.Contains(t, "STRING"), strings.Contains(t, "TEXT"):
		return quoteIdent(col.Name), nil
	default:
		return "", fmt.Errorf("column %q has type %s, masking supports integer and text columns", col.Name, col.Type)
	}
}

// addComputedColumn adds a typed column and fills it from expr in one
// UPDATE. On an UPDATE failure the half-added column is dropped and the
// original error returned.
func (d *Dataset) addComputedColumn(ctx context.Context, name, sqlType, expr string) error {
	if err := validIdent(name); err != nil {
		return err
	}
	cols, err := d.Columns(ctx)
	if err != nil {
		return err
	}
	if d.hasColumn(cols, name) {
		return fmt.Errorf("column %q already exists in table %s", name, d.tableName)
	}

	add := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`,
		quoteIdent(d.tableName), quoteIdent(name), sqlType)
	if err := d.db.Exec(ctx, add); err != nil {
		return fmt.Errorf("failed to add column %s: %w", name, err)
	}
	upd := fmt.Sprintf(`UPDATE %s SET %s = %s`, quoteIdent(d.tableName), quoteIdent(name), expr)
	if err := d.db.Exec(ctx, upd); err != nil {
		if cerr := d.DropColumns(ctx, name); cerr != nil {
			d.logger.Warn("failed to drop half-added column", "column", name, "error", cerr)
		}
		return fmt.Errorf("failed to fill column %s: %w", name, err)
	}
	return nil
}

// MailMaskOptions controls email masking. At least one of the user or
// domain directives must be set.
type MailMaskOptions struct {
	// MaskUser replaces the user part with a fixed placeholder.
	MaskUser bool
	// UserReplacement replaces the user part with the given text. Implies
	// MaskUser.
	UserReplacement string

	// MaskDomain replaces the domain with a random pick from a default
	// pool.
	MaskDomain bool
	// DomainReplacement replaces the domain with the given text. Implies
	// MaskDomain.
	DomainReplacement string
	// DomainChoices distributes the candidate domains over the eligible
	// rows in roughly equal random segments; the last choice absorbs any
	// remainder. Overrides DomainReplacement and MaskDomain.
	DomainChoices []string
}

func (o MailMaskOptions) userRepl() string {
	if o.UserReplacement != "" {
		return o.UserReplacement
	}
	if o.MaskUser {
		return "????????"
	}
	return ""
}

// AddMaskedMailColumn appends a VARCHAR column with masked email addresses
// derived from base. Rows untouched by every directive carry the original
// value. newName empty defaults to "masked_{base}".
func (d *Dataset) AddMaskedMailColumn(ctx context.Context, base, newName string, opts MailMaskOptions) error {
	col, err := d.resolveColumn(ctx, base)
	if err != nil {
		return err
	}
	t := strings.ToUpper(col.Type)
	if !strings.Contains(t, "CHAR") && !strings.Contains(t, "STRING") && !strings.Contains(t, "TEXT") {
		return fmt.Errorf("column %q has type %s, email masking needs a text column", col.Name, col.Type)
	}
	userRepl := opts.userRepl()
	domainFixed := opts.DomainReplacement
	if domainFixed == "" && opts.MaskDomain && len(opts.DomainChoices) == 0 {
		domainFixed = defaultMailDomains[rand.IntN(len(defaultMailDomains))]
	}
	if userRepl == "" && domainFixed == "" && len(opts.DomainChoices) == 0 {
		return fmt.Errorf("email masking needs at least one of user or domain directives")
	}

	if newName == "" {
		newName = "masked_" + col.Name
	}
	if err := validIdent(newName); err != nil {
		return err
	}
	cols, err := d.Columns(ctx)
	if err != nil {
		return err
	}
	if d.hasColumn(cols, newName) {
		return fmt.Errorf("column %q already exists in table %s", newName, d.tableName)
	}

	add := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s VARCHAR`,
		quoteIdent(d.tableName), quoteIdent(newName))
	if err := d.db.Exec(ctx, add); err != nil {
		return fmt.Errorf("failed to add column %s: %w", newName, err)
	}
	fail := func(err error) error {
		if cerr := d.DropColumns(ctx, newName); cerr != nil {
			d.logger.Warn("failed to drop half-added column", "column", newName, "error", cerr)
		}
		return err
	}

	b := quoteIdent(col.Name)
	nn := quoteIdent(newName)
	tbl := quoteIdent(d.tableName)

	// Fixed replacements first. Rows rewritten here are final.
	if expr := fixedMailExpr(b, userRepl, domainFixed); expr != "" {
		upd := fmt.Sprintf(`UPDATE %s SET %s = %s WHERE %s IS NOT NULL`, tbl, nn, expr, b)
		if err := d.db.Exec(ctx, upd); err != nil {
			return fail(fmt.Errorf("failed to apply email mask: %w", err))
		}
	}

	if len(opts.DomainChoices) > 0 {
		if err := d.applyDomainChoices(ctx, col.Name, newName, opts.DomainChoices); err != nil {
			return fail(err)
		}
	}

	// Anything no directive touched keeps its original value.
	carry := fmt.Sprintf(`UPDATE %s SET %s = %s WHERE %s IS NULL AND %s IS NOT NULL`, tbl, nn, b, nn, b)
	if err := d.db.Exec(ctx, carry); err != nil {
		return fail(fmt.Errorf("failed to finalize email mask: %w", err))
	}
	return nil
}

// MaskMailColumn masks email addresses in place.
func (d *Dataset) MaskMailColumn(ctx context.Context, base string, opts MailMaskOptions) error {
	staged := d.tempName("mail")
	return d.replaceViaStaged(ctx, base, staged, func() error {
		return d.AddMaskedMailColumn(ctx, base, staged, opts)
	})
}

// fixedMailExpr builds a regexp_replace chain for the fixed user/domain
// replacements, or "" when neither applies.
func fixedMailExpr(base, userRepl, domainRepl string) string {
	switch {
	case userRepl != "" && domainRepl != "":
		return fmt.Sprintf(`regexp_replace(%s, '^[A-Za-z0-9._%%+-]+@[A-Za-z0-9._-]+', %s)`,
			base, quoteLiteral(userRepl+"@"+domainRepl))
	case userRepl != "":
		return fmt.Sprintf(`regexp_replace(%s, '^[A-Za-z0-9._%%+-]+@', %s)`,
			base, quoteLiteral(userRepl+"@"))
	case domainRepl != "":
		return fmt.Sprintf(`regexp_replace(%s, '@[A-Za-z0-9._-]+$', %s)`,
			base, quoteLiteral("@"+domainRepl))
	default:
		return ""
	}
}

// applyDomainChoices partitions the eligible rows of base into contiguous
// random segments of size floor(n/len(choices)) and rewrites each segment's
// domain with one choice; the last choice takes the remainder. Eligible
// rows are those not yet masked and not already ending in a candidate
// domain.
func (d *Dataset) applyDomainChoices(ctx context.Context, base, newName string, choices []string) error {
	b := quoteIdent(base)
	nn := quoteIdent(newName)
	tbl := quoteIdent(d.tableName)

	skip := make([]string, len(choices))
	for i, c := range choices {
		skip[i] = fmt.Sprintf("ends_with(%s, %s)", b, quoteLiteral("@"+c))
	}
	eligible := fmt.Sprintf(`%s IS NULL AND %s IS NOT NULL AND NOT (%s)`,
		nn, b, strings.Join(skip, " OR "))

	var total int64
	row := d.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, tbl, eligible))
	if err := row.Scan(&total); err != nil {
		return fmt.Errorf("failed to count eligible rows: %w", err)
	}
	if total == 0 {
		return nil
	}
	share := total / int64(len(choices))

	// One pass: number the eligible rows in random order, pick the choice
	// by segment, rewrite the domain.
	caseExpr := strings.Builder{}
	caseExpr.WriteString("CASE")
	for i := 0; i < len(choices)-1; i++ {
		fmt.Fprintf(&caseExpr, " WHEN e.rn <= %d THEN %s", int64(i+1)*share, quoteLiteral("@"+choices[i]))
	}
	fmt.Fprintf(&caseExpr, " ELSE %s END", quoteLiteral("@"+choices[len(choices)-1]))

	upd := fmt.Sprintf(
		`UPDATE %s SET %s = regexp_replace(%s.%s, '@[A-Za-z0-9._-]+$', %s)
		 FROM (SELECT rowid AS rid, row_number() OVER (ORDER BY random()) AS rn
		       FROM %s WHERE %s) e
		 WHERE %s.rowid = e.rid`,
		tbl, nn, tbl, b, caseExpr.String(), tbl, eligible, tbl)
	if err := d.db.Exec(ctx, upd); err != nil {
		return fmt.Errorf("failed to apply domain choices: %w", err)
	}
	return nil
}
