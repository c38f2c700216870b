package handlers

import (
	"github.com/vladimiradmaev/mediplus/internal/interfaces"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	Vitals    interfaces.VitalsServiceInterface
	Insights  interfaces.InsightServiceInterface
	Checklist interfaces.ChecklistServiceInterface
	Chat      interfaces.ChatServiceInterface
}
