package pyast

import "fmt"

// Kind identifies the syntactic kind of a statement.
type Kind int

const (
	KindOther Kind = iota
	KindFunctionDef
	KindClassDef
	KindImport
	KindImportFrom
	KindAssign
	KindAugAssign
	KindTry
	KindExceptHandler
	KindExpr
	KindIf
	KindFor
	KindWhile
	KindWith
	KindMatch
	KindReturn
	KindRaise
	KindPass
	KindBreak
	KindContinue
	KindDelete
	KindGlobal
	KindNonlocal
	KindAssert
)

var kindNames = [...]string{
	KindOther:         "Other",
	KindFunctionDef:   "FunctionDef",
	KindClassDef:      "ClassDef",
	KindImport:        "Import",
	KindImportFrom:    "ImportFrom",
	KindAssign:        "Assign",
	KindAugAssign:     "AugAssign",
	KindTry:           "Try",
	KindExceptHandler: "ExceptHandler",
	KindExpr:          "Expr",
	KindIf:            "If",
	KindFor:           "For",
	KindWhile:         "While",
	KindWith:          "With",
	KindMatch:         "Match",
	KindReturn:        "Return",
	KindRaise:         "Raise",
	KindPass:          "Pass",
	KindBreak:         "Break",
	KindContinue:      "Continue",
	KindDelete:        "Delete",
	KindGlobal:        "Global",
	KindNonlocal:      "Nonlocal",
	KindAssert:        "Assert",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind returns the kind named s ("FunctionDef", "Try", ...).
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return KindOther, fmt.Errorf("unknown node kind %q", s)
}
