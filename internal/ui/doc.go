// Package ui provides semantic text formatting for quill's CLI output.
//
// Formatters colorize content by type when the terminal supports it. When
// NO_COLOR is set or the terminal doesn't support colors, text decorations
// are used instead:
//
//	ui.Code.Sprint("quill login")       // `quill login`
//	ui.Highlight.Sprint("user-1")       // 'user-1'
//	ui.Key.Sprint(ui.ShortKey(pub))     // <q83vEj0A…Xk4=>
//	ui.Muted.Sprint("locked")           // (locked)
//
// Path, Flag, Success, Error, Warning and Info are undecorated without color.
package ui
