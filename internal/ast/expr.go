package ast

// ExprKind discriminates the Expression variants.
type ExprKind uint8

const (
	ExprName ExprKind = iota
	ExprMemberAccess
	ExprArrayAccess
	ExprLiteral
	ExprCall
	ExprInfix
	ExprCast
	ExprUnaryPre
	ExprUnaryPost
	ExprStructInit
	ExprArrayInit
)

// LiteralKind classifies an ExprLiteral's payload.
type LiteralKind uint8

const (
	LitString LiteralKind = iota
	LitChar
	LitNumeric
	// LitNumericI / LitNumericU annotate an otherwise untyped numeric
	// literal for later inference.
	LitNumericI
	LitNumericU
)

// InfixTerm is one (operator, rhs) link in an InfixOperation chain,
// preserving the parser's left-to-right precedence folding.
type InfixTerm struct {
	Op  string
	Loc Location
	Rhs ExprID
}

// StructInitField binds a single field name to its initializer expression.
type StructInitField struct {
	Name string
	Expr ExprID
}

// Expr is an expression node. Like Def, only the fields relevant to Kind
// are populated.
type Expr struct {
	Kind ExprKind
	Loc  Location

	// ExprName
	Typed Typed

	// ExprMemberAccess
	Lhs ExprID
	Op  string // "." or "->" for MemberAccess; operator text for UnaryPre/Post
	Rhs string // field name for MemberAccess

	// ExprArrayAccess: Lhs + RhsExpr
	RhsExpr ExprID

	// ExprLiteral
	LitKind LiteralKind
	Value   string

	// ExprCall
	CallName Typed
	Args     []ExprID

	// ExprInfix
	InfixRhs []InfixTerm

	// ExprCast
	CastInto Typed
	CastExpr ExprID

	// ExprUnaryPre / ExprUnaryPost share Op + the operand in Inner
	Inner ExprID

	// ExprStructInit
	StructType Typed
	InitFields []StructInitField

	// ExprArrayInit
	ArrayFields []ExprID
}
