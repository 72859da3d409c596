package episodeapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/beka-birhanu/vinom-lab/bridge"
	"github.com/beka-birhanu/vinom-lab/game/episode"
	"github.com/gin-gonic/gin"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
	historyTimeout     = 2 * time.Second
)

// Environment is the part of the episode controller the API reads and steers.
type Environment interface {
	Snapshot() episode.Stats
	Current() *episode.Episode
	RequestReset()
}

// AgentLink is the part of the bridge the API reads and steers.
type AgentLink interface {
	State() bridge.State
	Addr() string
	Connect(addr string)
	Close()
}

// History lists finished episodes, most recent first.
type History interface {
	Recent(ctx context.Context, n int64) ([]episode.Record, error)
}

// EpisodeController serves the environment status and control routes.
type EpisodeController struct {
	env     Environment
	link    AgentLink
	history History
}

// NewEpisodeController creates an EpisodeController. link and history may be nil.
func NewEpisodeController(env Environment, link AgentLink, history History) *EpisodeController {
	return &EpisodeController{
		env:     env,
		link:    link,
		history: history,
	}
}

// RegisterPublic registers public routes.
func (ec *EpisodeController) RegisterPublic(route *gin.RouterGroup) {
	route.GET("/episode", ec.current)
	route.GET("/episode/maze", ec.grid)
	route.GET("/episodes/recent", ec.recent)
	route.GET("/bridge", ec.bridgeStatus)
}

// RegisterProtected registers protected routes.
func (ec *EpisodeController) RegisterProtected(route *gin.RouterGroup) {
	route.POST("/episode/reset", ec.reset)
	bridgeRoutes := route.Group("/bridge")
	{
		bridgeRoutes.POST("/connect", ec.connect)
		bridgeRoutes.POST("/disconnect", ec.disconnect)
	}
}

// current reports the running episode.
func (ec *EpisodeController) current(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, toEpisodeResponse(ec.env.Snapshot()))
}

// grid reports the layout of the running maze episode.
func (ec *EpisodeController) grid(ctx *gin.Context) {
	ep := ec.env.Current()
	if ep.Grid == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no maze in " + string(ep.Mode) + " mode"})
		return
	}
	ctx.JSON(http.StatusOK, toGridResponse(ep))
}

// recent lists finished episodes.
func (ec *EpisodeController) recent(ctx *gin.Context) {
	if ec.history == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "episode history is disabled"})
		return
	}

	limit := int64(defaultRecentLimit)
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRecentLimit)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()
	records, err := ec.history.Recent(timeoutCtx, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while reading episode history"})
		return
	}

	response := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		response = append(response, toRecordResponse(r))
	}
	ctx.JSON(http.StatusOK, response)
}

// reset asks the environment to start a new episode on its next step.
func (ec *EpisodeController) reset(ctx *gin.Context) {
	ec.env.RequestReset()
	ctx.Status(http.StatusAccepted)
}

// bridgeStatus reports the agent connection.
func (ec *EpisodeController) bridgeStatus(ctx *gin.Context) {
	if ec.link == nil {
		ctx.JSON(http.StatusOK, BridgeResponse{State: bridge.Disconnected.String()})
		return
	}
	ctx.JSON(http.StatusOK, BridgeResponse{State: ec.link.State().String(), Addr: ec.link.Addr()})
}

// connect points the bridge at the requested agent. The dial completes asynchronously.
func (ec *EpisodeController) connect(ctx *gin.Context) {
	if ec.link == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "bridge is disabled"})
		return
	}

	var request ConnectRequest
	if err := ctx.ShouldBind(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ec.link.Connect(request.Addr)
	ctx.JSON(http.StatusAccepted, BridgeResponse{State: ec.link.State().String(), Addr: ec.link.Addr()})
}

// disconnect closes the bridge.
func (ec *EpisodeController) disconnect(ctx *gin.Context) {
	if ec.link == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "bridge is disabled"})
		return
	}
	if ec.link.State() == bridge.Disconnected && ec.link.Addr() == "" {
		ctx.JSON(http.StatusConflict, gin.H{"error": bridge.ErrNotConnected.Error()})
		return
	}

	ec.link.Close()
	ctx.JSON(http.StatusOK, BridgeResponse{State: ec.link.State().String()})
}
