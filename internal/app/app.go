package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/wenchangshou/devicectl/internal/channel"
	"github.com/wenchangshou/devicectl/internal/config"
	"github.com/wenchangshou/devicectl/internal/controller"
	"github.com/wenchangshou/devicectl/internal/dependency"
	"github.com/wenchangshou/devicectl/internal/event"
	channelchecker "github.com/wenchangshou/devicectl/internal/healthcheck/checkers/channel"
	"github.com/wenchangshou/devicectl/internal/httpapi"
	"github.com/wenchangshou/devicectl/internal/node"
	"github.com/wenchangshou/devicectl/internal/notify"
	"github.com/wenchangshou/devicectl/internal/scene"
	"github.com/wenchangshou/devicectl/internal/scheduler"
)

// ConfigPath is supplied by the CLI entrypoint via fx.Supply.
type ConfigPath string

// Run assembles the full process graph and blocks until an OS signal or a
// fatal startup error, matching fx's standard run-to-completion model.
func Run(logger *slog.Logger, configPath string) {
	fx.New(
		fx.Supply(ConfigPath(configPath), logger),
		fx.Provide(
			provideConfig,
			provideBus,
			provideChannelManager,
			provideNodeManager,
			provideResolver,
			provideScheduler,
			provideSceneExecutor,
			provideSceneScheduler,
			provideNotifySink,
			provideFacade,
			provideHealthChecker,
			provideHTTPServer,
		),
		fx.Invoke(
			startChannelManager,
			startScheduler,
			startSceneScheduler,
			startNotifySink,
			startHTTPServer,
		),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig(path ConfigPath) (*config.Config, error) {
	return config.Load(string(path))
}

func provideBus(logger *slog.Logger) *event.Bus {
	return event.New(logger)
}

func provideChannelManager(logger *slog.Logger, bus *event.Bus, cfg *config.Config) (*channel.Manager, error) {
	mgr := channel.NewManager(logger, bus, channel.DefaultFactories())
	if err := mgr.Build(toChannelConfigs(cfg.Channels)); err != nil {
		return nil, fmt.Errorf("build channels: %w", err)
	}
	return mgr, nil
}

func provideNodeManager(logger *slog.Logger, bus *event.Bus, cfg *config.Config) (*node.Manager, error) {
	configs, err := toNodeConfigs(cfg.Nodes)
	if err != nil {
		return nil, fmt.Errorf("convert nodes: %w", err)
	}
	mgr := node.NewManager(logger, bus)
	if err := mgr.Load(configs); err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	return mgr, nil
}

// provideResolver constructs the resolver without its writer/scheduler
// collaborators, since both ultimately resolve to the controller facade,
// which itself depends on the resolver. SetWriter/SetScheduler close the
// cycle once every collaborator exists (see provideScheduler and
// provideFacade).
func provideResolver(nodes *node.Manager) *dependency.Resolver {
	return dependency.New(nodes, nil, nil)
}

func provideScheduler(logger *slog.Logger, bus *event.Bus, resolver *dependency.Resolver) *scheduler.Scheduler {
	s := scheduler.New(logger, bus, resolver, nil)
	resolver.SetScheduler(s)
	return s
}

func provideSceneExecutor(logger *slog.Logger, bus *event.Bus, cfg *config.Config) (*scene.Executor, error) {
	configs, err := toSceneConfigs(cfg.Scenes)
	if err != nil {
		return nil, fmt.Errorf("convert scenes: %w", err)
	}
	executor := scene.New(logger, bus, nil)
	if err := executor.Load(configs); err != nil {
		return nil, fmt.Errorf("load scenes: %w", err)
	}
	return executor, nil
}

func provideSceneScheduler(logger *slog.Logger, executor *scene.Executor) (*scene.Scheduler, error) {
	s := scene.NewScheduler(logger, executor)
	if err := s.Build(); err != nil {
		return nil, fmt.Errorf("build scene cron schedule: %w", err)
	}
	return s, nil
}

func provideNotifySink(logger *slog.Logger, bus *event.Bus, cfg *config.Config) (*notify.Sink, error) {
	targets, err := notify.BuildTargets(cfg.Notifications)
	if err != nil {
		return nil, fmt.Errorf("build notification targets: %w", err)
	}
	return notify.New(logger, bus, targets...), nil
}

// provideFacade assembles the facade and closes the resolver/scheduler/scene
// executor's forward references to it, since each needs to drive writes
// through the very component being constructed from them.
func provideFacade(
	logger *slog.Logger,
	channels *channel.Manager,
	nodes *node.Manager,
	resolver *dependency.Resolver,
	taskScheduler *scheduler.Scheduler,
	sceneExecutor *scene.Executor,
	sceneCron *scene.Scheduler,
	sink *notify.Sink,
	bus *event.Bus,
) *controller.Facade {
	facade := controller.New(logger, channels, nodes, resolver, sceneExecutor, bus,
		channels, taskScheduler, sceneCron, sink,
	)
	resolver.SetWriter(facade)
	taskScheduler.SetWriter(facade)
	sceneExecutor.SetWriter(facade)
	return facade
}

func provideHealthChecker(logger *slog.Logger, facade *controller.Facade) *channelchecker.Checker {
	return channelchecker.NewChecker(logger, facade)
}

func provideHTTPServer(logger *slog.Logger, cfg *config.Config, facade *controller.Facade, checker *channelchecker.Checker) *httpapi.Server {
	addr := fmt.Sprintf(":%d", cfg.WebServer.Port)
	return httpapi.New(logger, addr, facade, checker)
}

func startChannelManager(lc fx.Lifecycle, mgr *channel.Manager) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { mgr.Start(ctx); return nil },
		OnStop:  func(stopCtx context.Context) error { cancel(); return mgr.Shutdown(stopCtx) },
	})
}

func startScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { s.Start(ctx); return nil },
		OnStop:  func(stopCtx context.Context) error { cancel(); return s.Shutdown(stopCtx) },
	})
}

func startSceneScheduler(lc fx.Lifecycle, s *scene.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { s.Start(); return nil },
		OnStop:  func(stopCtx context.Context) error { return s.Shutdown(stopCtx) },
	})
}

func startNotifySink(lc fx.Lifecycle, sink *notify.Sink) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { sink.Start(ctx); return nil },
		OnStop:  func(stopCtx context.Context) error { cancel(); return sink.Shutdown(stopCtx) },
	})
}

func startHTTPServer(lc fx.Lifecycle, logger *slog.Logger, srv *httpapi.Server, facade *controller.Facade, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			if err := srv.Shutdown(stopCtx); err != nil {
				return err
			}
			return facade.Shutdown(stopCtx)
		},
	})
}
