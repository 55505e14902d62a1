package main

import (
	"context"
	"fmt"
	"strings"

	"health-monitor/entities"
	"health-monitor/repositories"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type step int

const (
	stepLoadingUsers step = iota
	stepSelectingUser
	stepLoadingReadings
	stepViewingReadings
)

type usersLoadedMsg []entities.User
type readingsLoadedMsg []entities.HealthData
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type browser struct {
	users    repositories.UserRepository
	readings repositories.HealthDataRepository
}

func (b browser) loadUsers() tea.Msg {
	users, err := b.users.GetAll(context.Background())
	if err != nil {
		return errMsg{err}
	}
	return usersLoadedMsg(users)
}

func (b browser) loadReadings(userID uint) tea.Cmd {
	return func() tea.Msg {
		data, err := b.readings.GetByUserID(context.Background(), userID)
		if err != nil {
			return errMsg{err}
		}
		return readingsLoadedMsg(data)
	}
}

type model struct {
	src      browser
	step     step
	users    []entities.User
	readings []entities.HealthData
	cursor   int
	message  string
	quitting bool
}

func initialModel(src browser) model {
	return model{src: src, step: stepLoadingUsers}
}

func (m model) Init() tea.Cmd {
	return m.src.loadUsers
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.step == stepSelectingUser && m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.step == stepSelectingUser && m.cursor < len(m.users)-1 {
				m.cursor++
			}

		case "enter":
			if m.step == stepSelectingUser && len(m.users) > 0 {
				m.step = stepLoadingReadings
				m.message = ""
				return m, m.src.loadReadings(m.users[m.cursor].ID)
			}

		case "esc", "backspace":
			if m.step == stepViewingReadings {
				m.step = stepSelectingUser
				m.readings = nil
			}
		}

	case usersLoadedMsg:
		m.users = []entities.User(msg)
		m.step = stepSelectingUser

	case readingsLoadedMsg:
		m.readings = []entities.HealthData(msg)
		m.step = stepViewingReadings

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		m.step = stepSelectingUser
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("Health Monitor Records"))
	s.WriteString("\n")
	if m.message != "" {
		s.WriteString(m.message + "\n\n")
	}

	switch m.step {
	case stepLoadingUsers:
		s.WriteString("Loading users...\n")

	case stepSelectingUser:
		if len(m.users) == 0 {
			s.WriteString("No users registered.\n")
			break
		}
		s.WriteString(headerStyle.Render("Select a user:") + "\n\n")
		for i, u := range m.users {
			cursor := " "
			style := normalStyle
			if m.cursor == i {
				cursor = ">"
				style = selectedStyle
			}
			s.WriteString(fmt.Sprintf("%s %s\n", cursor, style.Render(fmt.Sprintf("%d  %s", u.ID, u.Username))))
		}
		s.WriteString(hintStyle.Render("\nUse ↑/↓, Enter to view readings, q to quit") + "\n")

	case stepLoadingReadings:
		s.WriteString("Loading readings...\n")

	case stepViewingReadings:
		u := m.users[m.cursor]
		s.WriteString(headerStyle.Render(fmt.Sprintf("Readings for %s (%d)", u.Username, len(m.readings))) + "\n\n")
		if len(m.readings) == 0 {
			s.WriteString("No readings yet.\n")
		}
		for _, r := range m.readings {
			s.WriteString(fmt.Sprintf("  %s  pulse %d  bp %s  weight %.1f  %s\n",
				r.CreatedAt.Format("2006-01-02 15:04"), r.Pulse, r.BloodPressure, r.Weight, r.ActivityLevel))
			s.WriteString(hintStyle.Render("    "+r.Recommendation) + "\n")
		}
		s.WriteString(hintStyle.Render("\nEsc to go back, q to quit") + "\n")
	}

	return s.String()
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse users and their readings interactively",
		RunE: func(_ *cobra.Command, _ []string) error {
			database, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			src := browser{
				users:    repositories.NewUserSQLRepository(database),
				readings: repositories.NewHealthDataSQLRepository(database),
			}
			_, err = tea.NewProgram(initialModel(src)).Run()
			return err
		},
	}
}
