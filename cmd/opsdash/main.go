package main

import (
	"context"
	crypto_rand "crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medops/opsdash/internal/config"
	"github.com/medops/opsdash/internal/dashboard"
	"github.com/medops/opsdash/internal/domain/catalog"
	"github.com/medops/opsdash/internal/domain/lab"
	"github.com/medops/opsdash/internal/domain/pharmacy"
	"github.com/medops/opsdash/internal/domain/radiology"
	"github.com/medops/opsdash/internal/platform/auth"
	"github.com/medops/opsdash/internal/platform/db"
	"github.com/medops/opsdash/internal/platform/middleware"
	"github.com/medops/opsdash/internal/platform/notify"
	"github.com/medops/opsdash/internal/platform/payment"
	"github.com/medops/opsdash/pkg/pagination"
	"github.com/medops/opsdash/pkg/qr"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "opsdash",
		Short: "Hospital department operations dashboard",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(inventoryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
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

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
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

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
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
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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

// lookupCmd decodes a scanned payload and prints the appointment's rows
// grouped by department, the same view the dashboard screens render.
func lookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <payload>",
		Short: "Decode a QR payload and fetch the appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			department, _ := cmd.Flags().GetString("department")
			token, _ := cmd.Flags().GetString("token")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			id, ok := qr.Extract(args[0])
			if !ok {
				return fmt.Errorf("payload does not contain an appointment id")
			}

			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			client := dashboard.NewClient(cfg.APIBaseURL, logger)
			client.Token = token

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			if department == "pharmacy" {
				return lookupPrescription(ctx, client, id)
			}

			var fetch dashboard.ServiceFetcher
			switch department {
			case "lab":
				fetch = dashboard.ServiceFetcherFunc(client.LabServices)
			case "radiology":
				fetch = dashboard.ServiceFetcherFunc(client.RadiologyServices)
			default:
				return fmt.Errorf("unknown department %q (want lab, radiology or pharmacy)", department)
			}

			agg, err := dashboard.NewAggregator(fetch).Retrieve(ctx, id)
			if errors.Is(err, dashboard.ErrNotFound) {
				return fmt.Errorf("no records for appointment %s", id)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Patient:     %s\n", agg.Patient.PatientName)
			fmt.Printf("Doctor:      %s\n", agg.Patient.DoctorName)
			fmt.Printf("Date:        %s\n", agg.Patient.AppointmentDate)
			fmt.Printf("Appointment: %s\n", agg.Patient.AppointmentID)
			for _, g := range agg.Groups {
				fmt.Printf("\n%s\n", g.Department)
				for _, s := range g.Services {
					fmt.Printf("  %-30s %s\n", s.ServiceName, serviceState(s))
				}
			}
			return nil
		},
	}
	cmd.Flags().String("department", "lab", "Department view: lab, radiology or pharmacy")
	cmd.Flags().String("token", "", "Bearer session token")
	return cmd
}

func lookupPrescription(ctx context.Context, client *dashboard.Client, id string) error {
	agg := dashboard.NewPrescriptionAggregator(client, client)
	p, err := agg.Retrieve(ctx, id)
	if errors.Is(err, dashboard.ErrNotFound) {
		return fmt.Errorf("no prescription for appointment %s", id)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Patient: %s\n", p.Patient.PatientName)
	fmt.Printf("Doctor:  %s\n", p.Patient.DoctorName)
	fmt.Printf("Date:    %s\n", p.Patient.AppointmentDate)
	fmt.Printf("Status:  %s\n\n", p.Prescription.DispenseStatus)
	for _, m := range p.Prescription.Medications {
		fmt.Printf("  %-30s qty %-4d @%.2f  in stock: %d (%s)\n",
			m.MedicineName, m.Quantity, m.UnitPrice, m.InStock, m.StockStatus)
	}
	return nil
}

func serviceState(s dashboard.ServiceRow) string {
	switch {
	case s.SampleCollected:
		return "sample collected, report " + s.ReportStatus
	case s.TestConducted:
		return "conducted"
	case s.Status != "":
		return s.Status
	default:
		return "pending"
	}
}

// inventoryCmd lists the medicine inventory through the same pagination
// and filter engine the dashboard screens use.
func inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Medicine inventory commands",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List medicines with search, filters and paging",
		RunE: func(cmd *cobra.Command, args []string) error {
			search, _ := cmd.Flags().GetString("search")
			stock, _ := cmd.Flags().GetString("stock")
			page, _ := cmd.Flags().GetInt("page")
			height, _ := cmd.Flags().GetInt("height")
			token, _ := cmd.Flags().GetString("token")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			client := dashboard.NewClient(cfg.APIBaseURL, logger)
			client.Token = token

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			items, err := client.Inventory(ctx)
			if err != nil {
				return err
			}

			state := pagination.NewState(height)
			state.SetSearch(search)
			state.SetFilter("stock_status", stock)
			state.Page = page

			filtered := pagination.Filter(items, state.Search, func(it dashboard.InventoryItem) []string {
				fields := []string{it.Name}
				if it.Category != nil {
					fields = append(fields, *it.Category)
				}
				return fields
			})
			filtered = pagination.ApplyFilters(filtered, state.Filters, func(it dashboard.InventoryItem, key, value string) bool {
				switch key {
				case "stock_status":
					return it.StockStatus == value
				default:
					return true
				}
			})

			rows, totalPages := pagination.Page(filtered, state.Page, state.ItemsPerPage())
			if totalPages == 0 {
				fmt.Println("No medicines match.")
				return nil
			}

			fmt.Printf("%-30s %-12s %8s %6s %-12s %s\n", "NAME", "CATEGORY", "PRICE", "QTY", "STOCK", "EXPIRY")
			for _, it := range rows {
				category := ""
				if it.Category != nil {
					category = *it.Category
				}
				expiry := it.ExpiryStatus
				if it.ExpiryDate != nil {
					expiry = fmt.Sprintf("%s (%s)", it.ExpiryDate.Format("2006-01-02"), it.ExpiryStatus)
				}
				fmt.Printf("%-30s %-12s %8.2f %6d %-12s %s\n",
					it.Name, category, it.Price, it.Quantity, it.StockStatus, expiry)
			}

			var bar []string
			for _, p := range pagination.PageWindow(totalPages, state.Page) {
				if p == pagination.Ellipsis {
					bar = append(bar, "...")
				} else if p == state.Page {
					bar = append(bar, fmt.Sprintf("[%d]", p))
				} else {
					bar = append(bar, fmt.Sprintf("%d", p))
				}
			}
			fmt.Printf("\nPage %d of %d   %s\n", state.Page, totalPages, strings.Join(bar, " "))
			return nil
		},
	}
	listCmd.Flags().String("search", "", "Case-insensitive name/category search")
	listCmd.Flags().String("stock", "", "Filter by stock status: in_stock, low_stock, out_of_stock")
	listCmd.Flags().Int("page", 1, "Page number")
	listCmd.Flags().Int("height", 800, "Viewport height used to size the page")
	listCmd.Flags().String("token", "", "Bearer session token")
	cmd.AddCommand(listCmd)

	return cmd
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
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
	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal().Err(err).Msg("invalid server configuration")
	}

	// Session secret: required in production, generated for dev runs so
	// tokens do not survive a restart.
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := crypto_rand.Read(secret); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate session secret")
		}
		logger.Warn().Msg("SESSION_SECRET not set; using a random per-process secret")
	}
	issuer := auth.NewTokenIssuer(secret, time.Duration(cfg.SessionTTLMinutes)*time.Minute)

	dashboardUser := cfg.DashboardUser
	dashboardPass := cfg.DashboardPass
	if cfg.IsDev() && dashboardUser == "" {
		dashboardUser, dashboardPass = "admin", "admin"
		logger.Warn().Msg("DASHBOARD_USER not set; using dev credentials admin/admin")
	}
	verifier := auth.MultiVerifier{
		auth.StaticVerifier{Username: dashboardUser, Password: dashboardPass, Role: "admin"},
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unreachable")
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Login stays outside the authenticated group.
	e.POST("/api/auth/login", func(c echo.Context) error {
		var req loginRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		role, err := verifier.Verify(c.Request().Context(), req.Username, req.Password)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		token, err := issuer.Issue(req.Username, role)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, loginResponse{Token: token, Role: role})
	})

	api := e.Group("/api", auth.Middleware(issuer))

	// -- Register Domain Handlers --

	// Pharmacy domain
	rules := pharmacy.Rules{
		LowStockThreshold: cfg.LowStockThreshold,
		ExpiryWindowDays:  cfg.ExpiryWindowDays,
	}
	medRepo := pharmacy.NewMedicineRepoPG(pool)
	rxRepo := pharmacy.NewPrescriptionRepoPG(pool)
	billRepo := pharmacy.NewBillRepoPG(pool)
	analyticsRepo := pharmacy.NewAnalyticsRepoPG(pool)
	notifier := notify.LogNotifier{Log: logger}
	gateway := payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	pharmacySvc := pharmacy.NewService(medRepo, rxRepo, billRepo, analyticsRepo, notifier, gateway, rules)
	pharmacyHandler := pharmacy.NewHandler(pharmacySvc)
	pharmacyHandler.RegisterRoutes(api)

	// Lab domain
	psRepo := lab.NewPatientServiceRepoPG(pool)
	labTestRepo := lab.NewLabTestRepoPG(pool)
	labSvc := lab.NewService(psRepo, labTestRepo)
	labHandler := lab.NewHandler(labSvc)
	labHandler.RegisterRoutes(api)

	// Radiology domain
	radServiceRepo := radiology.NewServiceRepoPG(pool)
	radRxRepo := radiology.NewPrescriptionRepoPG(pool)
	radReportRepo := radiology.NewReportRepoPG(pool)
	radSvc := radiology.NewService(radServiceRepo, radRxRepo, radReportRepo)
	radHandler := radiology.NewHandler(radSvc)
	radHandler.RegisterRoutes(api)

	// Service catalog
	catalogRepo := catalog.NewRepoPG(pool)
	catalogSvc := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogSvc)
	catalogHandler.RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
