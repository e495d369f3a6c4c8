package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	graphqlgo "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"

	"github.com/populare/dbproxy/internal/graphql"
)

const (
	contentTypeGraphQL = "application/graphql"

	// maxBodyBytes bounds request bodies. Posts are small.
	maxBodyBytes = 1 << 20
)

func (s *Server) handleGraphQLPost(c *gin.Context) {
	var req graphql.Request
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	if c.ContentType() == contentTypeGraphQL {
		query, err := io.ReadAll(body)
		if err != nil {
			s.badRequest(c, "failed to read request body", err)
			return
		}
		req.Query = string(query)
	} else if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.badRequest(c, "request body is not a valid GraphQL JSON request", err)
		return
	}
	s.execute(c, req)
}

func (s *Server) handleGraphQLGet(c *gin.Context) {
	req := graphql.Request{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
	}
	if vars := c.Query("variables"); vars != "" {
		if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
			s.badRequest(c, "variables is not a JSON object", err)
			return
		}
	}
	s.execute(c, req)
}

func (s *Server) execute(c *gin.Context, req graphql.Request) {
	if req.Query == "" {
		s.badRequest(c, "query is required", nil)
		return
	}

	resp := s.exec.Exec(c.Request.Context(), req)
	for _, qe := range resp.Errors {
		code, _ := qe.Extensions["code"].(string)
		if code == "" {
			code = "QUERY"
		}
		s.metrics.graphqlErrors.WithLabelValues(code).Inc()
	}
	c.JSON(http.StatusOK, resp)
}

// badRequest answers in GraphQL's error shape so clients need one decoder.
func (s *Server) badRequest(c *gin.Context, msg string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	s.metrics.graphqlErrors.WithLabelValues("BAD_REQUEST").Inc()
	c.JSON(http.StatusBadRequest, &graphqlgo.Response{
		Errors: []*gqlerrors.QueryError{{Message: msg}},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReady(c *gin.Context) {
	if s.pinger == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	if err := s.pinger.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
