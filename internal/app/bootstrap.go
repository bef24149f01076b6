package app

import (
	"context"
	"errors"
	"time"

	"github.com/jiancai-next/internal/backend"
	"github.com/jiancai-next/internal/cache"
	"github.com/jiancai-next/internal/config"
	"github.com/jiancai-next/internal/gueststore"
	"github.com/jiancai-next/internal/http/handlers/view"
	"github.com/jiancai-next/internal/logger"
	"github.com/jiancai-next/internal/models"
	"github.com/jiancai-next/internal/realtime"
	"github.com/jiancai-next/internal/router"
	"github.com/jiancai-next/internal/session"
	"github.com/jiancai-next/internal/store"
)

// BuildRunner 构建服务运行器：装配会话、远端客户端、Store、
// 游客存储、推送托管器与本地门面
func BuildRunner(cfg *config.Config) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if err := cache.InitRedis(&cfg.Redis); err != nil {
		return nil, err
	}

	sess := session.New()
	remote, err := backend.New(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
	}, sess)
	if err != nil {
		return nil, err
	}

	cartStore := store.New(remote)
	cartStore.SetOnChange(func(cart models.Cart) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := cache.SetCartSnapshot(ctx, sess.Subject(), cart); err != nil {
			logger.Warnw("snapshot_cache_write_failed", "error", err)
		}
	})

	guest, err := gueststore.Open(cfg.GuestStore.Path)
	if err != nil {
		return nil, err
	}

	supervisor := realtime.NewSupervisor(cfg.Backend.WSURL, sess, cartStore)
	handler := view.New(sess, cartStore, guest, remote, supervisor)

	engine := router.SetupRouter(cfg, handler)
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	httpService := NewHTTPService(addr, engine)

	return NewRunner(httpService, newSupervisorService(supervisor)), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("agent_start", "addr", addr, "backend", opts.Config.Backend.BaseURL)
	return RunWithOptions(runner, opts)
}

// supervisorService 把推送托管器纳入运行器生命周期：
// 监听本身随会话启停，进程退出时兜底撤下连接
type supervisorService struct {
	supervisor *realtime.Supervisor
}

func newSupervisorService(supervisor *realtime.Supervisor) *supervisorService {
	return &supervisorService{supervisor: supervisor}
}

func (s *supervisorService) Name() string {
	return "realtime-supervisor"
}

func (s *supervisorService) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s *supervisorService) Stop(ctx context.Context) error {
	s.supervisor.StopSession()
	return nil
}
