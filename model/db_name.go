package model

const (
	// USER 用户
	USER string = "users"

	// ORGANIZATION 组织
	ORGANIZATION string = "organizations"

	// TASK 任务
	TASK string = "tasks"

	// SPRINT 冲刺
	SPRINT string = "sprints"

	// PROJECT 项目
	PROJECT string = "projects"

	// ALERT 提醒
	ALERT string = "alerts"
)
