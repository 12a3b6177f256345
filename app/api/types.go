package api

import (
	"github.com/rosesandhello/facescrape/app/category"
	"github.com/rosesandhello/facescrape/app/database"
	"github.com/rosesandhello/facescrape/app/tasks"
)

type Handler struct {
	oppRepo     database.OpportunityRepository
	configCache *category.ConfigCache
	scheduler   tasks.TaskSchedulerInterface
}
