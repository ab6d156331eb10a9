package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/errdefs"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/executor"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
	"github.com/Wenrh2004/judge-sandbox/pkg/metrics"
)

// slot states
const (
	ContainerStatusCreating = "creating"
	ContainerStatusReady    = "ready"
	ContainerStatusStale    = "stale" // stopped after a deadline, restarted on next acquire
	ContainerStatusStopped  = "stopped"
)

const (
	provisionConcurrency = 4
	stopTimeout          = 10 * time.Second
)

// ContainerSlot is the long-lived container bound to one worker.
type ContainerSlot struct {
	Index  int
	Name   string
	ID     string
	Status string
}

// PoolOptions are the container settings shared by every slot.
type PoolOptions struct {
	Size          int
	Image         string
	NamePrefix    string
	MountSource   string
	MountTarget   string
	MemoryBytes   int64
	PidsLimit     int64
	// User runs the container as uid:gid so it can write the bind-mounted workspaces.
	User          string
	RemoveOnClose bool
}

// PoolOptionsFromConfig reads app.sandbox.docker; the container user defaults to the host's.
func PoolOptionsFromConfig(conf *viper.Viper, mountSource string) PoolOptions {
	user := conf.GetString("app.sandbox.docker.user")
	if user == "" {
		user = hostUser()
	}
	return PoolOptions{
		Size:          conf.GetInt("app.sandbox.workers"),
		Image:         conf.GetString("app.sandbox.docker.image"),
		NamePrefix:    conf.GetString("app.sandbox.docker.name_prefix"),
		MountSource:   mountSource,
		MountTarget:   conf.GetString("app.sandbox.docker.mount_target"),
		MemoryBytes:   conf.GetInt64("app.sandbox.docker.memory_mb") * 1024 * 1024,
		PidsLimit:     conf.GetInt64("app.sandbox.docker.pids_limit"),
		User:          user,
		RemoveOnClose: conf.GetBool("app.sandbox.docker.remove_on_close"),
	}
}

// hostUser is empty where the platform has no uids, leaving the image default.
func hostUser() string {
	uid := os.Getuid()
	if uid < 0 {
		return ""
	}
	return strconv.Itoa(uid) + ":" + strconv.Itoa(os.Getgid())
}

// ContainerPool owns one warm container per worker slot. Containers are found by name,
// so a restarted process picks up the same containers instead of creating new ones.
type ContainerPool struct {
	opts    PoolOptions
	cli     DockerClient
	monitor *Monitor
	logger  *log.Logger
	slots   []*ContainerSlot
	mutex   sync.Mutex
}

// NewContainerPool names the slots but starts nothing; call Provision before Acquire.
func NewContainerPool(opts PoolOptions, cli DockerClient, logger *log.Logger) (*ContainerPool, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("[runner.NewContainerPool]invalid pool size %d", opts.Size)
	}
	for _, l := range vo.Languages() {
		if l.Image != "" && l.Image != opts.Image {
			return nil, fmt.Errorf("[runner.NewContainerPool]language %s needs image %s, pool runs %s", l.Name, l.Image, opts.Image)
		}
	}
	p := &ContainerPool{
		opts:    opts,
		cli:     cli,
		monitor: NewMonitor(cli, logger),
		logger:  logger,
		slots:   make([]*ContainerSlot, opts.Size),
	}
	for i := range p.slots {
		// names are 1-based
		p.slots[i] = &ContainerSlot{
			Index: i,
			Name:  opts.NamePrefix + strconv.Itoa(i+1),
		}
	}
	return p, nil
}

// Provision makes sure every slot has a running container.
func (p *ContainerPool) Provision(ctx context.Context) error {
	p.logger.Info("[ContainerPool.Provision]provisioning container pool",
		zap.Int("size", len(p.slots)), zap.String("image", p.opts.Image))
	if err := p.ensureImage(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(provisionConcurrency)
	for _, slot := range p.slots {
		g.Go(func() error {
			return p.provisionSlot(gctx, slot)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	metrics.ContainersReady.Set(float64(len(p.slots)))
	p.logger.Info("[ContainerPool.Provision]container pool ready", zap.Int("size", len(p.slots)))
	return nil
}

func (p *ContainerPool) ensureImage(ctx context.Context) error {
	images, err := p.cli.ImageList(ctx, image.ListOptions{})
	if err == nil {
		for _, img := range images {
			for _, tag := range img.RepoTags {
				if tag == p.opts.Image || tag == p.opts.Image+":latest" {
					return nil
				}
			}
		}
	} else {
		p.logger.Warn("[ContainerPool.ensureImage]list images failed, pulling", zap.Error(err))
	}

	p.logger.Info("[ContainerPool.ensureImage]pulling image", zap.String("image", p.opts.Image))
	reader, err := p.cli.ImagePull(ctx, p.opts.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("[ContainerPool.ensureImage]pull %s: %w", p.opts.Image, err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("[ContainerPool.ensureImage]pull %s: %w", p.opts.Image, err)
	}
	return nil
}

func (p *ContainerPool) provisionSlot(ctx context.Context, slot *ContainerSlot) error {
	info, err := p.cli.ContainerInspect(ctx, slot.Name)
	switch {
	case err == nil:
		if info.ContainerJSONBase == nil {
			return fmt.Errorf("[ContainerPool.provisionSlot]inspect %s: empty response", slot.Name)
		}
		p.setSlot(slot, info.ID, ContainerStatusCreating)
		if info.State != nil && info.State.Running {
			p.setSlot(slot, info.ID, ContainerStatusReady)
			p.logger.Debug("[ContainerPool.provisionSlot]reusing running container", zap.String("container", slot.Name))
			return nil
		}
		p.logger.Info("[ContainerPool.provisionSlot]restarting stopped container", zap.String("container", slot.Name))
		if err := p.cli.ContainerStart(ctx, info.ID, container.StartOptions{}); err != nil {
			return fmt.Errorf("[ContainerPool.provisionSlot]start %s: %w", slot.Name, err)
		}
		metrics.ContainerRestartsTotal.WithLabelValues("startup").Inc()
		p.setSlot(slot, info.ID, ContainerStatusReady)
		return nil
	case errdefs.IsNotFound(err):
	default:
		return fmt.Errorf("[ContainerPool.provisionSlot]inspect %s: %w", slot.Name, err)
	}

	p.logger.Info("[ContainerPool.provisionSlot]creating container", zap.String("container", slot.Name))
	resp, err := p.cli.ContainerCreate(ctx, p.containerConfig(slot), p.hostConfig(), nil, nil, slot.Name)
	if err != nil {
		return fmt.Errorf("[ContainerPool.provisionSlot]create %s: %w", slot.Name, err)
	}
	p.setSlot(slot, resp.ID, ContainerStatusCreating)
	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("[ContainerPool.provisionSlot]start %s: %w", slot.Name, err)
	}
	p.setSlot(slot, resp.ID, ContainerStatusReady)
	return nil
}

func (p *ContainerPool) containerConfig(slot *ContainerSlot) *container.Config {
	return &container.Config{
		Image:           p.opts.Image,
		User:            p.opts.User,
		Cmd:             []string{"tail", "-f", "/dev/null"},
		WorkingDir:      p.opts.MountTarget,
		NetworkDisabled: true,
		// toolchain caches must live on the tmpfs
		Env: []string{"HOME=/tmp", "GOCACHE=/tmp/go-build", "XDG_CACHE_HOME=/tmp/.cache"},
		Labels: map[string]string{
			"judge-sandbox.slot": strconv.Itoa(slot.Index + 1),
		},
	}
}

func (p *ContainerPool) hostConfig() *container.HostConfig {
	pids := p.opts.PidsLimit
	hc := &container.HostConfig{
		Binds:          []string{p.opts.MountSource + ":" + p.opts.MountTarget},
		NetworkMode:    "none",
		ReadonlyRootfs: true,
		CapDrop:        []string{"ALL"},
		SecurityOpt:    []string{"no-new-privileges"},
		// compilers need a scratch dir on a read-only rootfs
		Tmpfs: map[string]string{"/tmp": "rw,exec,size=64m,mode=1777"},
		Resources: container.Resources{
			NanoCPUs:   1_000_000_000,
			Memory:     p.opts.MemoryBytes,
			MemorySwap: p.opts.MemoryBytes,
		},
	}
	if pids > 0 {
		hc.Resources.PidsLimit = &pids
	}
	return hc
}

func (p *ContainerPool) setSlot(slot *ContainerSlot, id, status string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	slot.ID = id
	slot.Status = status
}

func (p *ContainerPool) markStale(slot *ContainerSlot) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	slot.Status = ContainerStatusStale
}

// retire stops a container whose case ran past its deadline; the runaway process may still
// hold resources inside it.
func (p *ContainerPool) retire(slot *ContainerSlot) {
	timeout := 0
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := p.cli.ContainerStop(ctx, slot.ID, container.StopOptions{Timeout: &timeout}); err != nil && !errdefs.IsNotFound(err) {
		p.logger.Error("[ContainerPool.retire]failed to stop container", zap.String("container", slot.Name), zap.Error(err))
	}
	p.markStale(slot)
}

// Acquire returns the executor bound to worker's container, restarting it first if a
// previous case left it stopped.
func (p *ContainerPool) Acquire(ctx context.Context, worker int) (executor.Executor, error) {
	if worker < 0 || worker >= len(p.slots) {
		return nil, fmt.Errorf("%w: %d", executor.ErrNoSuchWorker, worker)
	}
	slot := p.slots[worker]

	p.mutex.Lock()
	status, id := slot.Status, slot.ID
	p.mutex.Unlock()

	switch status {
	case ContainerStatusReady:
	case ContainerStatusStale:
		p.logger.Info("[ContainerPool.Acquire]restarting container", zap.String("container", slot.Name))
		if err := p.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
			return nil, fmt.Errorf("[ContainerPool.Acquire]restart %s: %w", slot.Name, err)
		}
		metrics.ContainerRestartsTotal.WithLabelValues("stale").Inc()
		p.setSlot(slot, id, ContainerStatusReady)
	default:
		return nil, fmt.Errorf("[ContainerPool.Acquire]container %s is %s", slot.Name, status)
	}

	return &ContainerRunner{
		pool:    p,
		slot:    slot,
		cli:     p.cli,
		monitor: p.monitor,
		mount:   p.opts.MountTarget,
		logger:  p.logger,
	}, nil
}

// Close stops every container; they are removed only when RemoveOnClose is set.
func (p *ContainerPool) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.logger.Info("[ContainerPool.Close]stopping container pool", zap.Int("size", len(p.slots)))
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout*2)
	defer cancel()

	var errs []error
	for _, slot := range p.slots {
		if slot.ID == "" {
			continue
		}
		if err := p.cli.ContainerStop(ctx, slot.ID, container.StopOptions{}); err != nil && !errdefs.IsNotFound(err) {
			errs = append(errs, fmt.Errorf("stop %s: %w", slot.Name, err))
		}
		if p.opts.RemoveOnClose {
			if err := p.cli.ContainerRemove(ctx, slot.ID, container.RemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
				errs = append(errs, fmt.Errorf("remove %s: %w", slot.Name, err))
			}
			slot.ID = ""
		}
		slot.Status = ContainerStatusStopped
	}
	metrics.ContainersReady.Set(0)
	if err := errors.Join(errs...); err != nil {
		p.logger.Warn("[ContainerPool.Close]errors while closing pool", zap.Error(err))
	}
}
