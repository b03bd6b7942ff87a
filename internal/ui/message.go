package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yard/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgContainersLoaded MsgKind = iota
	MsgSearchDone
)

type containersLoaded struct {
	containers []*models.Container
	err        error
}

type searchDone struct {
	query     string
	container *models.Container
	err       error
}

// containersLoadedMsg is the constructor for [MsgContainersLoaded]
func containersLoadedMsg(containers []*models.Container, err error) Msg {
	return Msg{kind: MsgContainersLoaded, data: containersLoaded{containers, err}}
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(query string, container *models.Container, err error) Msg {
	return Msg{kind: MsgSearchDone, data: searchDone{query, container, err}}
}

// Kind reports which message this is.
func (m Msg) Kind() MsgKind { return m.kind }
