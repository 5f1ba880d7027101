package app

import (
	"os"
	"strconv"
	"time"

	"wainbox/internal/auth"
	"wainbox/internal/config"
	"wainbox/internal/media"
	"wainbox/internal/repo"
	"wainbox/internal/whatsapp"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Services holds all application services
type Services struct {
	DB               *gorm.DB
	Config           *config.Service
	AuthService      *auth.Service
	AgentRepo        *repo.AgentRepository
	ContactRepo      *repo.ContactRepository
	ConversationRepo *repo.ConversationRepository
	MessageRepo      *repo.MessageRepository
	TemplateRepo     *repo.TemplateRepository
	SettingRepo      *repo.SettingRepository
	WhatsApp         *whatsapp.Client
	MediaCache       *media.Cache
	MediaStore       media.Store
}

// NewServices creates a new services container
func NewServices(db *gorm.DB) (*Services, error) {
	agentRepo := repo.NewAgentRepository(db)
	contactRepo := repo.NewContactRepository(db)
	conversationRepo := repo.NewConversationRepository(db)
	messageRepo := repo.NewMessageRepository(db)
	templateRepo := repo.NewTemplateRepository(db)
	settingRepo := repo.NewSettingRepository(db)

	cfg := config.NewService()
	if err := cfg.Load(settingRepo); err != nil {
		return nil, err
	}

	authService := auth.NewService(agentRepo)
	whatsappClient := whatsapp.NewClient(cfg)

	mediaCache := media.NewCache(mediaCacheTTL(), mediaCacheCapacity())

	var mediaStore media.Store
	if s3Store, err := media.NewS3StoreFromEnv(); err == nil {
		log.Info().Msg("Using S3 attachment storage")
		mediaStore = s3Store
	} else {
		diskStore, err := media.NewDiskStore(os.Getenv("UPLOADS_DIR"))
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Using local disk attachment storage")
		mediaStore = diskStore
	}

	return &Services{
		DB:               db,
		Config:           cfg,
		AuthService:      authService,
		AgentRepo:        agentRepo,
		ContactRepo:      contactRepo,
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		TemplateRepo:     templateRepo,
		SettingRepo:      settingRepo,
		WhatsApp:         whatsappClient,
		MediaCache:       mediaCache,
		MediaStore:       mediaStore,
	}, nil
}

func mediaCacheTTL() time.Duration {
	if v := os.Getenv("MEDIA_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Warn().Str("value", v).Msg("Invalid MEDIA_CACHE_TTL, using default")
	}
	return media.DefaultTTL
}

func mediaCacheCapacity() int {
	if v := os.Getenv("MEDIA_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("value", v).Msg("Invalid MEDIA_CACHE_CAPACITY, using default")
	}
	return media.DefaultCapacity
}
