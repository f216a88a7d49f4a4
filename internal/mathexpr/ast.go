package mathexpr

// Node is a parsed expression tree node. The parser understands more
// constructs than the evaluator accepts; see allowed.
type Node interface {
	node()
}

// NumberLit is an integer or float literal.
type NumberLit struct {
	Value Value
}

// UnaryExpr is a prefix operator applied to X.
type UnaryExpr struct {
	Op string
	X  Node
}

// BinaryExpr is an infix arithmetic operator.
type BinaryExpr struct {
	Op   string
	X, Y Node
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	X Node
}

// Ident is a bare name.
type Ident struct {
	Name string
}

// StringLit is a quoted string.
type StringLit struct {
	Value string
}

// CallExpr is Fun(Args...).
type CallExpr struct {
	Fun  Node
	Args []Node
}

// AttrExpr is X.Name.
type AttrExpr struct {
	X    Node
	Name string
}

// IndexExpr is X[Index].
type IndexExpr struct {
	X     Node
	Index Node
}

// CompareExpr is X op Y for ==, !=, <, <=, >, >=.
type CompareExpr struct {
	Op   string
	X, Y Node
}

// AssignExpr is Target = Value.
type AssignExpr struct {
	Target Node
	Value  Node
}

// SequenceExpr is several statements separated by ';'.
type SequenceExpr struct {
	List []Node
}

func (*NumberLit) node()    {}
func (*UnaryExpr) node()    {}
func (*BinaryExpr) node()   {}
func (*ParenExpr) node()    {}
func (*Ident) node()        {}
func (*StringLit) node()    {}
func (*CallExpr) node()     {}
func (*AttrExpr) node()     {}
func (*IndexExpr) node()    {}
func (*CompareExpr) node()  {}
func (*AssignExpr) node()   {}
func (*SequenceExpr) node() {}

var (
	allowedUnary  = map[string]bool{"+": true, "-": true}
	allowedBinary = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true, "**": true}
)

// allowed walks the whole tree and returns the first node that is not on the
// allow-list, or nil.
func allowed(n Node) Node {
	switch n := n.(type) {
	case *NumberLit:
		return nil
	case *ParenExpr:
		return allowed(n.X)
	case *UnaryExpr:
		if !allowedUnary[n.Op] {
			return n
		}
		return allowed(n.X)
	case *BinaryExpr:
		if !allowedBinary[n.Op] {
			return n
		}
		if bad := allowed(n.X); bad != nil {
			return bad
		}
		return allowed(n.Y)
	default:
		return n
	}
}
