// Package tui implements the interactive terminal dashboard of crawldash
// on top of bubbletea.
//
// The Model only talks to a *dashboard.Dashboard. Blocking calls run as
// tea.Cmd functions, and crawl settlements and alerts reach the program
// through Events rather than store change callbacks, which may fire while
// the coordinator lock is held.
package tui
