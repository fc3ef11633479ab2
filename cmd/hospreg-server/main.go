package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hospreg/hospreg/internal/config"
	"github.com/hospreg/hospreg/internal/domain/announcement"
	"github.com/hospreg/hospreg/internal/domain/history"
	"github.com/hospreg/hospreg/internal/domain/patient"
	"github.com/hospreg/hospreg/internal/domain/staff"
	"github.com/hospreg/hospreg/internal/platform/db"
	"github.com/hospreg/hospreg/internal/platform/middleware"
	"github.com/hospreg/hospreg/internal/platform/notification"
	"github.com/hospreg/hospreg/internal/platform/session"
)

// DoctorDirectoryAdapter adapts the staff service to the patient package's
// doctor lookups, avoiding circular imports between the two packages.
type DoctorDirectoryAdapter struct {
	svc *staff.Service
}

func (a *DoctorDirectoryAdapter) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	member, err := a.svc.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, staff.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return member.IsDoctor() || member.IsMainDoctor(), nil
}

func (a *DoctorDirectoryAdapter) ListDoctors(ctx context.Context) ([]patient.DoctorRef, error) {
	doctors, err := a.svc.Doctors(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]patient.DoctorRef, 0, len(doctors))
	for _, d := range doctors {
		refs = append(refs, patient.DoctorRef{ID: d.ID, FullName: d.FullName})
	}
	return refs, nil
}

// HistoryWriterAdapter archives discharged patients through the history
// service, snapshotting the doctor's name into the record.
type HistoryWriterAdapter struct {
	histSvc  *history.Service
	staffSvc *staff.Service
}

func (a *HistoryWriterAdapter) CreateFromPatient(ctx context.Context, p *patient.Patient) error {
	doctorName := p.DoctorName
	if doctorName == "" {
		if d, err := a.staffSvc.GetByID(ctx, p.DoctorID); err == nil {
			doctorName = d.FullName
		}
	}
	return a.histSvc.Archive(ctx, &history.Record{
		FullName:     p.FullName,
		Phone:        p.Phone,
		BirthDate:    p.BirthDate,
		Department:   p.Department,
		Diagnosis:    p.Diagnosis,
		Notes:        p.Notes,
		Ward:         p.Ward,
		Bed:          p.Bed,
		AdmittedAt:   p.AdmittedAt,
		DischargedAt: p.DischargeAt,
		DoctorID:     p.DoctorID,
		DoctorName:   doctorName,
	})
}

// PatientCounterAdapter backs the personnel delete guard with the admitted
// patients count.
type PatientCounterAdapter struct {
	repo patient.Repository
}

func (a *PatientCounterAdapter) CountActiveByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	return a.repo.CountByDoctor(ctx, doctorID)
}

// RecipientListerAdapter feeds the announcement fan-out from the staff list.
type RecipientListerAdapter struct {
	svc *staff.Service
}

func (a *RecipientListerAdapter) ListRecipients(ctx context.Context) ([]announcement.Recipient, error) {
	members, err := a.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	recipients := make([]announcement.Recipient, 0, len(members))
	for _, m := range members {
		recipients = append(recipients, announcement.Recipient{FullName: m.FullName, Email: m.Email})
	}
	return recipients, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hospreg-server",
		Short: "Hospital registration server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the registration server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative account tasks",
	}

	ensureCmd := &cobra.Command{
		Use:   "ensure",
		Short: "Create the main doctor account if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, _ := cmd.Flags().GetString("login")
			password, _ := cmd.Flags().GetString("password")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if login == "" {
				login = cfg.AdminLogin
			}
			if password == "" {
				password = cfg.AdminPassword
			}
			if password == "" {
				password = "admin"
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			patientRepo := patient.NewRepo(pool)
			staffSvc := staff.NewService(staff.NewRepo(pool), &PatientCounterAdapter{repo: patientRepo}, logger)
			if err := staffSvc.EnsureMainDoctor(ctx, login, password); err != nil {
				return fmt.Errorf("ensure main doctor: %w", err)
			}

			fmt.Println("Main doctor account is in place.")
			return nil
		},
	}
	ensureCmd.Flags().String("login", "", "Login for the main doctor account (defaults to ADMIN_LOGIN)")
	ensureCmd.Flags().String("password", "", "Password for the main doctor account (defaults to ADMIN_PASSWORD)")
	cmd.AddCommand(ensureCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Sessions. Development falls back to an ephemeral secret, which signs
	// out everyone on restart.
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := crypto_rand.Read(buf); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate session secret")
		}
		secret = []byte(hex.EncodeToString(buf))
		logger.Warn().Msg("SESSION_SECRET not set; using an ephemeral secret")
	}
	sessions := session.NewManager(session.NewMemoryStore(), secret, cfg.SessionTTL())

	// Mail
	var mailer notification.EmailSender
	if cfg.SMTPAddr != "" {
		mailer = notification.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		mailer = &notification.LogSender{Log: logger}
		logger.Warn().Msg("SMTP_ADDR not set; announcement emails will be logged only")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	// Repositories and services
	staffRepo := staff.NewRepo(pool)
	patientRepo := patient.NewRepo(pool)
	historyRepo := history.NewRepo(pool)
	announcementRepo := announcement.NewRepo(pool)

	historySvc := history.NewService(historyRepo, logger)
	staffSvc := staff.NewService(staffRepo, &PatientCounterAdapter{repo: patientRepo}, logger)
	patientSvc := patient.NewService(patientRepo,
		&DoctorDirectoryAdapter{svc: staffSvc},
		&HistoryWriterAdapter{histSvc: historySvc, staffSvc: staffSvc},
		db.NewPoolTxRunner(pool), logger)

	announcementSvc := announcement.NewService(announcementRepo,
		&RecipientListerAdapter{svc: staffSvc}, mailer, logger)

	// Seed the initial main doctor account so a fresh install can sign in.
	adminPassword := cfg.AdminPassword
	if adminPassword == "" {
		adminPassword = "admin"
	}
	if err := staffSvc.EnsureMainDoctor(ctx, cfg.AdminLogin, adminPassword); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed main doctor account")
	}

	// Handlers
	mw := staff.NewMiddleware(sessions, staffRepo)
	staff.NewHandler(staffSvc, sessions, logger).RegisterRoutes(e, mw)
	patient.NewHandler(patientSvc, logger).RegisterRoutes(e, mw)
	history.NewHandler(historySvc, logger).RegisterRoutes(e, mw)
	announcement.NewHandler(announcementSvc, logger).RegisterRoutes(e, mw)

	// Health check and the generic error page
	e.GET("/health", db.HealthHandler(pool))
	e.GET("/error", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"page":    "error",
			"message": "Сталася помилка. Спробуйте ще раз.",
		})
	})

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}
