package runner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

type createCall struct {
	name       string
	config     *container.Config
	hostConfig *container.HostConfig
}

type execResult struct {
	stdout   string
	stderr   string
	exitCode int
	// block keeps the stream open until the runner closes it
	block bool
}

type fakeDockerClient struct {
	mu            sync.Mutex
	nextID        int
	images        []image.Summary
	pulls         []string
	inspect       map[string]types.ContainerJSON
	creates       []createCall
	starts        []string
	stops         []string
	removes       []string
	execs         []container.ExecOptions
	execCreateErr error
	results       []execResult
	exitCodes     map[string]int
	stats         func() io.ReadCloser
	statsErr      error
	pipes         []net.Conn
}

func newFakeDockerClient() *fakeDockerClient {
	return &fakeDockerClient{
		inspect:   make(map[string]types.ContainerJSON),
		exitCodes: make(map[string]int),
	}
}

func (f *fakeDockerClient) ImageList(context.Context, image.ListOptions) ([]image.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images, nil
}

func (f *fakeDockerClient) ImagePull(_ context.Context, ref string, _ image.PullOptions) (io.ReadCloser, error) {
	f.mu.Lock()
	f.pulls = append(f.pulls, ref)
	f.mu.Unlock()
	return io.NopCloser(strings.NewReader(`{"status":"Downloaded"}`)), nil
}

func (f *fakeDockerClient) ContainerInspect(_ context.Context, containerID string) (types.ContainerJSON, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.inspect[containerID]
	if !ok {
		return types.ContainerJSON{}, errdefs.NotFound(fmt.Errorf("No such container: %s", containerID))
	}
	return info, nil
}

func (f *fakeDockerClient) ContainerCreate(_ context.Context, config *container.Config, hostConfig *container.HostConfig, _ *network.NetworkingConfig, _ *specs.Platform, containerName string) (container.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("cid-%d", f.nextID)
	f.creates = append(f.creates, createCall{name: containerName, config: config, hostConfig: hostConfig})
	return container.CreateResponse{ID: id}, nil
}

func (f *fakeDockerClient) ContainerStart(_ context.Context, containerID string, _ container.StartOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, containerID)
	return nil
}

func (f *fakeDockerClient) ContainerStop(_ context.Context, containerID string, _ container.StopOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops = append(f.stops, containerID)
	return nil
}

func (f *fakeDockerClient) ContainerRemove(_ context.Context, containerID string, _ container.RemoveOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, containerID)
	return nil
}

func (f *fakeDockerClient) ContainerExecCreate(_ context.Context, _ string, options container.ExecOptions) (types.IDResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.execCreateErr != nil {
		return types.IDResponse{}, f.execCreateErr
	}
	f.execs = append(f.execs, options)
	return types.IDResponse{ID: fmt.Sprintf("exec-%d", len(f.execs))}, nil
}

func (f *fakeDockerClient) ContainerExecAttach(_ context.Context, execID string, _ container.ExecAttachOptions) (types.HijackedResponse, error) {
	f.mu.Lock()
	var res execResult
	if len(f.results) > 0 {
		res, f.results = f.results[0], f.results[1:]
	}
	f.exitCodes[execID] = res.exitCode
	client, server := net.Pipe()
	f.pipes = append(f.pipes, server)
	f.mu.Unlock()

	if !res.block {
		go func() {
			_, _ = server.Write(frames(res.stdout, res.stderr))
			_ = server.Close()
		}()
	}
	return types.HijackedResponse{Conn: client, Reader: bufio.NewReader(client)}, nil
}

func (f *fakeDockerClient) ContainerExecInspect(_ context.Context, execID string) (container.ExecInspect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return container.ExecInspect{ExecID: execID, ExitCode: f.exitCodes[execID]}, nil
}

func (f *fakeDockerClient) ContainerStats(context.Context, string, bool) (container.StatsResponseReader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statsErr != nil {
		return container.StatsResponseReader{}, f.statsErr
	}
	if f.stats == nil {
		return container.StatsResponseReader{Body: io.NopCloser(strings.NewReader(""))}, nil
	}
	return container.StatsResponseReader{Body: f.stats()}, nil
}

func (f *fakeDockerClient) queue(results ...execResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, results...)
}

func (f *fakeDockerClient) setContainer(name, id string, running bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inspect[name] = types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID:    id,
			Name:  "/" + name,
			State: &types.ContainerState{Running: running},
		},
	}
}

func (f *fakeDockerClient) snapshot() (creates []createCall, starts, stops, removes []string, execs []container.ExecOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]createCall(nil), f.creates...),
		append([]string(nil), f.starts...),
		append([]string(nil), f.stops...),
		append([]string(nil), f.removes...),
		append([]container.ExecOptions(nil), f.execs...)
}

func (f *fakeDockerClient) closePipes() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pipes {
		_ = p.Close()
	}
}

// frames encodes output the way the daemon multiplexes a non-tty exec.
func frames(stdout, stderr string) []byte {
	var buf bytes.Buffer
	if stdout != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(stdout))
	}
	if stderr != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(stderr))
	}
	return buf.Bytes()
}
