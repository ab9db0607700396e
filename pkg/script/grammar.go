// Package script implements a small line-oriented language for editing a
// circuit. Each statement becomes one undoable command on a project.Session:
//
//	place resistor R1 at 2,3 rot 90 value "4.7k"
//	place source V1 near 0,0 value 9V
//	connect V1.out R1.in via 4,1 4,2
//	disconnect V1.out R1.in
//	move R1 to 5,5
//	rotate R1 by 180
//	set R1 "10k"
//	rename R1 R9
//	toggle S1
//	delete R9 S1
//	undo
//	redo
//
// Statements are separated by newlines or semicolons; '#' starts a comment.
package script

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ScriptLexer tokenizes edit scripts. Keywords are matched before
// identifiers and are case-insensitive.
var ScriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "EOL", Pattern: `[\n;]`},

	{Name: "KwPlace", Pattern: `(?i)\bplace\b`},
	{Name: "KwAt", Pattern: `(?i)\bat\b`},
	{Name: "KwNear", Pattern: `(?i)\bnear\b`},
	{Name: "KwRot", Pattern: `(?i)\brot\b`},
	{Name: "KwValue", Pattern: `(?i)\bvalue\b`},
	{Name: "KwConnect", Pattern: `(?i)\bconnect\b`},
	{Name: "KwDisconnect", Pattern: `(?i)\bdisconnect\b`},
	{Name: "KwVia", Pattern: `(?i)\bvia\b`},
	{Name: "KwMove", Pattern: `(?i)\bmove\b`},
	{Name: "KwTo", Pattern: `(?i)\bto\b`},
	{Name: "KwRotate", Pattern: `(?i)\brotate\b`},
	{Name: "KwBy", Pattern: `(?i)\bby\b`},
	{Name: "KwSet", Pattern: `(?i)\bset\b`},
	{Name: "KwRename", Pattern: `(?i)\brename\b`},
	{Name: "KwToggle", Pattern: `(?i)\btoggle\b`},
	{Name: "KwDelete", Pattern: `(?i)\bdelete\b`},
	{Name: "KwUndo", Pattern: `(?i)\bundo\b`},
	{Name: "KwRedo", Pattern: `(?i)\bredo\b`},

	{Name: "String", Pattern: `"(\\.|[^"\\\n])*"`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Dot", Pattern: `\.`},
})

// Script is a parsed edit script.
type Script struct {
	Statements []*Statement `( EOL | @@ )*`
}

// Statement is one edit. Exactly one field is set.
type Statement struct {
	Pos lexer.Position

	Place      *PlaceStmt      `  @@`
	Connect    *ConnectStmt    `| @@`
	Disconnect *DisconnectStmt `| @@`
	Move       *MoveStmt       `| @@`
	Rotate     *RotateStmt     `| @@`
	Set        *SetStmt        `| @@`
	Rename     *RenameStmt     `| @@`
	Toggle     *ToggleStmt     `| @@`
	Delete     *DeleteStmt     `| @@`
	Undo       bool            `| @KwUndo`
	Redo       bool            `| @KwRedo`
}

// Point is a grid cell written as x,y.
type Point struct {
	X int `@Number Comma`
	Y int `@Number`
}

// PinRef names a pin as Component.pin, where pin is a pin name, a role or an
// index.
type PinRef struct {
	Component string `@Ident Dot`
	Pin       string `@( Ident | Number )`
}

func (p *PinRef) String() string { return p.Component + "." + p.Pin }

// Value is component value text, quoted or bare (9V, 4.7k).
type Value struct {
	Text string `@String | @Number @Ident?`
}

// Location is where a component is placed.
type Location struct {
	At   *Point `  KwAt @@`
	Near *Point `| KwNear @@`
}

type PlaceOption struct {
	Rot   *Angle `  KwRot @@`
	Value *Value `| KwValue @@`
}

type Angle struct {
	Degrees int `@Number`
}

type PlaceStmt struct {
	Kind    string         `KwPlace @Ident`
	Name    string         `@Ident?`
	Where   *Location      `@@`
	Options []*PlaceOption `@@*`
}

type ConnectStmt struct {
	From *PinRef  `KwConnect @@`
	To   *PinRef  `@@`
	Via  []*Point `( KwVia @@+ )?`
}

type DisconnectStmt struct {
	From *PinRef `KwDisconnect @@`
	To   *PinRef `@@`
}

type MoveStmt struct {
	Name string `KwMove @Ident`
	To   *Point `KwTo @@`
}

type RotateStmt struct {
	Name string `KwRotate @Ident`
	By   *Angle `( KwBy @@ )?`
}

type SetStmt struct {
	Name  string `KwSet @Ident`
	Value *Value `@@`
}

type RenameStmt struct {
	From string `KwRename @Ident`
	To   string `@Ident`
}

type ToggleStmt struct {
	Name string `KwToggle @Ident`
}

type DeleteStmt struct {
	Names []string `KwDelete @Ident+`
}

var scriptParser = participle.MustBuild[Script](
	participle.Lexer(ScriptLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses src without executing it.
func Parse(src string) (*Script, error) {
	sc, err := scriptParser.ParseString("", src)
	if err != nil {
		return nil, err
	}
	return sc, nil
}
