package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"navigation-session-service/internal/adapters/directions"
	"navigation-session-service/internal/adapters/location"
	"navigation-session-service/internal/app"
	"navigation-session-service/internal/config"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/platform/obs"
	"navigation-session-service/internal/services"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// navsim replays recorded fixes into an in-process session, taps a
// destination, and prints the resulting map as GeoJSON.
func main() {
	var (
		fixesPath = flag.String("fixes", "", "JSON file of recorded location fixes (required)")
		tapFlag   = flag.String("tap", "", "destination tap as lat,lng (required)")
		tapAfter  = flag.Int("tap-after", 1, "number of replayed fixes before the tap; 0 taps first")
		interval  = flag.Duration("interval", 0, "delay between replayed fixes; 0 uses LOCATION_INTERVAL")
		route     = flag.String("route", "", "encoded polyline to serve instead of calling a directions provider")
		dbPath    = flag.String("db", ":memory:", "sqlite path for sessions and route cache")
		wait      = flag.Duration("wait", 30*time.Second, "how long to wait for the route")
	)
	flag.Parse()

	if *fixesPath == "" || *tapFlag == "" {
		flag.Usage()
		os.Exit(2)
	}
	tap, err := parseLatLng(*tapFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := loadConfig(*route != "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	replay, err := replayInterval(*interval, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.DBPath = *dbPath

	logger, err := obs.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	sim := simulation{
		fixesPath: *fixesPath,
		tap:       tap,
		tapAfter:  *tapAfter,
		interval:  replay,
		wait:      *wait,
	}
	var opts []app.Option
	if *route != "" {
		opts = append(opts, app.WithDirectionsProvider(directions.NewMockDirectionsProvider(*route)))
	}

	if err := sim.run(cfg, logger, os.Stdout, opts...); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

// loadConfig skips provider validation when routes come from a flag.
func loadConfig(offline bool) (*config.Config, error) {
	if offline {
		return config.Read(), nil
	}
	return config.Load()
}

// replayInterval paces the replay at the configured location update
// interval unless the flag overrides it.
func replayInterval(flagValue time.Duration, cfg *config.Config) (time.Duration, error) {
	if flagValue == 0 {
		flagValue = cfg.LocationInterval
	}
	if flagValue <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", flagValue)
	}
	return flagValue, nil
}

func parseLatLng(s string) (domain.Coordinates, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.Coordinates{}, fmt.Errorf("parse %q: want lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse latitude %q: %w", parts[0], err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse longitude %q: %w", parts[1], err)
	}
	c := domain.Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return domain.Coordinates{}, fmt.Errorf("parse %q: %w", s, domain.ErrInvalidCoordinates)
	}
	return c, nil
}

type simulation struct {
	fixesPath string
	tap       domain.Coordinates
	tapAfter  int
	interval  time.Duration
	wait      time.Duration
}

func (s simulation) run(cfg *config.Config, logger *zap.Logger, out io.Writer, opts ...app.Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := location.LoadReplayFile(s.fixesPath)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	nav, _, err := a.Manager.Create(domain.PermissionFineLocation, domain.PermissionCoarseLocation)
	if err != nil {
		return err
	}

	tapped := atomic.Bool{}
	doTap := func() {
		if tapped.Swap(true) {
			return
		}
		accepted, err := nav.Tap(s.tap)
		logger.Info("tap", zap.Bool("accepted", accepted), zap.Error(err))
	}

	if s.tapAfter <= 0 {
		doTap()
	}

	replayed := 0
	err = src.Run(ctx, s.interval, func(fix domain.LocationFix) {
		delivered, err := nav.PushLocation(fix)
		if err != nil {
			logger.Warn("fix rejected", zap.Error(err))
			return
		}
		replayed++
		logger.Debug("fix replayed", zap.Int("n", replayed), zap.Bool("delivered", delivered))
		if replayed == s.tapAfter {
			doTap()
		}
	})
	if err != nil {
		return fmt.Errorf("replay fixes: %w", err)
	}
	doTap()

	if err := waitForRoute(ctx, nav, s.wait); err != nil {
		return err
	}

	fc, err := nav.Map().FeatureCollection()
	if err != nil {
		return fmt.Errorf("render map: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}

// waitForRoute blocks until the route request has settled.
func waitForRoute(ctx context.Context, nav *services.Navigator, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		sess, err := nav.Session()
		if err != nil {
			return err
		}
		if sess.RouteStatus != domain.RoutePending && sess.RouteStatus != domain.RouteNone {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("wait for route: no result after %s", timeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
