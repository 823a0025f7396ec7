package dto

import "lintas.id/aidesk/internal/entity"

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

type UserListResponse struct {
	Data []*entity.User `json:"data"`
}

type StatsResponse struct {
	Tickets       map[string]int64 `json:"tickets"`
	UnreadByAdmin int64            `json:"unreadByAdmin"`
	Users         int64            `json:"users"`
}
