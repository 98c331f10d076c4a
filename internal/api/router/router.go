package router

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/storage"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz,
	resumeHandler *handler.ResumeHandler,
	jobHandler *handler.JobHandler,
	matchHandler *handler.MatchHandler,
) {
	api := h.Group("/api/v1")

	api.POST("/resume/upload", func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		targetJobID := ctx.PostForm("target_job_id")
		sourceChannel := ctx.PostForm("source_channel")
		if sourceChannel == "" {
			sourceChannel = "web_upload"
		}

		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		resp, err := resumeHandler.HandleResumeUpload(c, file, fileHeader.Filename, targetJobID, sourceChannel)
		if err != nil {
			if errors.Is(err, extractor.ErrEmptyDocument) {
				ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/resume/:resume_id", func(c context.Context, ctx *app.RequestContext) {
		resumeID := ctx.Param("resume_id")
		resp, err := resumeHandler.HandleGetResume(c, resumeID)
		if err != nil {
			if errors.Is(err, storage.ErrResumeNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/job", func(c context.Context, ctx *app.RequestContext) {
		var req handler.JobUpsertRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		resp, err := jobHandler.HandleUpsertJob(c, &req)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/job/ingest", func(c context.Context, ctx *app.RequestContext) {
		var req handler.JobIngestRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		resp, err := jobHandler.HandleIngestJob(c, &req)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/match/:resume_id/:job_id", func(c context.Context, ctx *app.RequestContext) {
		resumeID := ctx.Param("resume_id")
		jobID := ctx.Param("job_id")
		resp, err := matchHandler.HandleScorePair(c, resumeID, jobID)
		if err != nil {
			if errors.Is(err, storage.ErrResumeNotFound) || errors.Is(err, storage.ErrJobNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/match/rank/:resume_id", func(c context.Context, ctx *app.RequestContext) {
		resumeID := ctx.Param("resume_id")
		resp, err := matchHandler.HandleRank(c, resumeID)
		if err != nil {
			if errors.Is(err, storage.ErrResumeNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
