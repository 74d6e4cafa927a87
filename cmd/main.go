package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/ahmed-226/BidTreasure-sub000/configs"
	"github.com/ahmed-226/BidTreasure-sub000/internal/auction"
	"github.com/ahmed-226/BidTreasure-sub000/internal/database"
	"github.com/ahmed-226/BidTreasure-sub000/internal/handlers/rest"
	ws "github.com/ahmed-226/BidTreasure-sub000/internal/handlers/websocket"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/utils"
)

var (
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	engine *auction.Engine
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Every(1*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Define the model for the Bubble Tea application
type model struct {
	table     table.Model
	viewport  viewport.Model
	logBuffer *bytes.Buffer
	logs      []string
	showTable bool
	quitting  bool
}

func (m model) Init() tea.Cmd {
	return tick()
}

func newTable() model {
	columns := []table.Column{
		{Title: "AUCTION ID", Width: 24},
		{Title: "PRICE", Width: 10},
		{Title: "HIGH BIDDER", Width: 16},
		{Title: "TIME LEFT", Width: 14},
		{Title: "STATUS", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(snapshotRows()),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	vp := viewport.New(100, 15)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		PaddingRight(2)
	return model{table: t, showTable: true, viewport: vp}
}

func snapshotRows() []table.Row {
	snaps := engine.Snapshots()
	rows := make([]table.Row, 0, len(snaps))
	for _, snap := range snaps {
		highBidder := "-"
		if snap.HighBidderID != "" {
			highBidder = snap.HighBidderID
		}

		timeLeft := "Ended"
		if !snap.Status.Terminal() {
			timeLeft = (time.Duration(snap.TimeRemainingSeconds) * time.Second).String()
		}

		rows = append(rows, table.Row{
			snap.AuctionID,
			strconv.FormatInt(snap.CurrentPrice, 10),
			highBidder,
			timeLeft,
			string(snap.Status),
		})
	}
	return rows
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {

	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)
	switch msg := msg.(type) {
	case tickMsg:
		if m.showTable {
			m.table.SetRows(snapshotRows())
		} else {
			// refresh logs to get new logs
			m.logs = nil
			logs := strings.Split(m.logBuffer.String(), "\n")
			m.logs = append(m.logs, logs...)
			return m, tick()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			if !m.showTable {
				m.viewport.LineUp(1) // Scroll up one line in logs
			}
		case "down":
			if !m.showTable {
				m.viewport.LineDown(1) // Scroll down one line in logs
			}
		case "tab":
			m.showTable = !m.showTable
			if !m.showTable {
				// Load logs from buffer when switching to logs view
				m.logs = nil
				logs := strings.Split(m.logBuffer.String(), "\n")
				m.logs = append(m.logs, logs...)
			}
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	}

	if m.showTable {
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// Render the view based on the current state of the model
func (m model) View() string {
	if m.quitting {
		return "Bye!\n"
	}
	if m.showTable {
		return baseStyle.Render(m.table.View()) + "\n" + helpStyle.Render("• tab: switch modes • q: exit\n")
	}

	// Create a copy of logs to avoid modifying the original
	styledLogs := make([]string, len(m.logs))
	copy(styledLogs, m.logs)

	styledLogs = utils.ColorizeLogs(styledLogs)

	// only show last 15 lines of logs
	if len(styledLogs) > 15 {
		styledLogs = styledLogs[len(styledLogs)-15:]
	}

	m.viewport.SetContent(strings.Join(styledLogs, "\n"))
	return m.viewport.View() + "\n" + helpStyle.Render("• tab: switch modes • q: exit\n")
}

func main() {
	// Load configurations
	cfg, err := configs.LoadConfig()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	port := cfg.Server.Port
	if port == "" {
		port = "8080" // Default port if not specified
	}

	// Setup logger
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "debug" // Default log level if not specified
	}
	logLevel, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		log.Error("Invalid log level: ", err)
	}
	log.SetLevel(logLevel)

	// Redirect logs to buffer
	logBuffer := new(bytes.Buffer)
	log.SetOutput(logBuffer)

	// Initialize the auction engine
	engine = auction.New(auction.SystemClock(), auction.Options{
		AntiSnipeWindow: cfg.Engine.AntiSnipeWindow,
		MaxExtensions:   cfg.Engine.MaxExtensions,
	})

	// Optional bid archive
	if cfg.Database.Enabled {
		db, err := database.New(cfg)
		if err != nil {
			log.Fatal("Error connecting to archive database: ", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(context.Background()); err != nil {
			log.Fatal("Error preparing archive schema: ", err)
		}
		recorder := database.NewRecorder(db)
		recorder.Attach(engine)
		defer recorder.Close()
	}

	// WebSocket feed and HTTP API share one router
	auctionFeed := ws.NewAuctionWebSocketHandler(engine)
	gin.SetMode(gin.ReleaseMode)
	router := rest.NewRouter(engine)
	router.GET("/ws/auction", gin.WrapF(auctionFeed.HandleAuctions))

	// Finalize expired auctions independently of any connected client
	go func() {
		ticker := time.NewTicker(cfg.Engine.TickInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			engine.Tick(now)
		}
	}()

	// Start server in a goroutine
	log.Infof("Server started on port %s", port)
	go func() {
		if err := http.ListenAndServe(":"+port, router); err != nil {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Start Bubble Tea program
	m := newTable()
	m.logBuffer = logBuffer
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running dashboard: %v\n", err)
	}
}
