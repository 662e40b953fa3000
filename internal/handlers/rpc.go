package handlers

import (
	"net/http"

	"todoapi/internal/dto"
	"todoapi/internal/service"

	"github.com/gin-gonic/gin"
)

// RPCHandler serves the five todo procedures as POST /rpc/<name>. Every
// success is 200 {"result": ...}; a missing id yields a null or false result.
type RPCHandler struct {
	svc *service.TodoService
}

func NewRPCHandler(svc *service.TodoService) *RPCHandler {
	return &RPCHandler{svc: svc}
}

// CreateTodo godoc
// @Summary      createTodo procedure
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTodoRequest  true  "Input"
// @Success      200   {object}  dto.RPCResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /rpc/createTodo [post]
func (h *RPCHandler) CreateTodo(c *gin.Context) {
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), req.Input())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RPCResponse{Result: dto.TodoToResponse(t)})
}

// GetTodo godoc
// @Summary      getTodo procedure; result is null when the id is unknown
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Param        body  body      dto.IDRequest  true  "Input"
// @Success      200   {object}  dto.RPCResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /rpc/getTodo [post]
func (h *RPCHandler) GetTodo(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.svc.Get(c.Request.Context(), req.ID)
	if err != nil {
		serviceError(c, err)
		return
	}
	if t == nil {
		c.JSON(http.StatusOK, dto.RPCResponse{Result: nil})
		return
	}
	c.JSON(http.StatusOK, dto.RPCResponse{Result: dto.TodoToResponse(*t)})
}

// GetTodos godoc
// @Summary      getTodos procedure; newest first
// @Tags         rpc
// @Produce      json
// @Success      200   {object}  dto.RPCResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /rpc/getTodos [post]
func (h *RPCHandler) GetTodos(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RPCResponse{Result: dto.TodosToResponses(list)})
}

// UpdateTodo godoc
// @Summary      updateTodo procedure; result is null when the id is unknown
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Param        body  body      dto.UpdateTodoRPCRequest  true  "Input"
// @Success      200   {object}  dto.RPCResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /rpc/updateTodo [post]
func (h *RPCHandler) UpdateTodo(c *gin.Context) {
	var req dto.UpdateTodoRPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.svc.Update(c.Request.Context(), req.Input(req.ID))
	if err != nil {
		serviceError(c, err)
		return
	}
	if t == nil {
		c.JSON(http.StatusOK, dto.RPCResponse{Result: nil})
		return
	}
	c.JSON(http.StatusOK, dto.RPCResponse{Result: dto.TodoToResponse(*t)})
}

// DeleteTodo godoc
// @Summary      deleteTodo procedure; result is whether a row was removed
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Param        body  body      dto.IDRequest  true  "Input"
// @Success      200   {object}  dto.RPCResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /rpc/deleteTodo [post]
func (h *RPCHandler) DeleteTodo(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	removed, err := h.svc.Delete(c.Request.Context(), req.ID)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RPCResponse{Result: removed})
}
