package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"aptimaster-sync/internal/app"
	"aptimaster-sync/internal/config"
	"aptimaster-sync/internal/domain"
	"aptimaster-sync/internal/infra/blobstore"
	"aptimaster-sync/internal/infra/localapi"
	"aptimaster-sync/internal/infra/records"
	"aptimaster-sync/internal/poller"
	"github.com/spf13/cobra"
)

const defaultClassroom = "DEMO-ROOM"

// session bundles one client's sync layer with the settings it was built from.
type session struct {
	cfg       config.Config
	classroom string
	service   *app.SyncService
	locator   *app.Locator
	local     *localapi.Client
	records   *records.FileStore
}

func newSession(configPath, classroomFlag string) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	recordStore := records.NewFileStore(config.RecordsPath(cfg.Sync.RecordsPath))
	httpClient := &http.Client{}

	local := localapi.NewClient(cfg.Sync.LocalURL, httpClient)
	localCapable := config.LocalCapable(cfg.Sync.LocalCapable, func() bool {
		return localapi.IsLoopback(local.BaseURL())
	})

	locator := app.NewLocator(local, localCapable, config.Duration(cfg.Sync.ProbeTimeout, app.DefaultProbeTimeout), log.Default())
	service := app.NewSyncService(app.SyncDeps{
		Cache:        app.NewStateCache(),
		Locator:      locator,
		Local:        local,
		Remote:       blobstore.NewClient(cfg.Sync.RemoteURL, httpClient),
		Partitions:   app.NewPartitionResolver(recordStore),
		Configs:      app.NewConfigStore(recordStore),
		FetchTimeout: config.Duration(cfg.Sync.FetchTimeout, app.DefaultFetchTimeout),
		Logger:       log.Default(),
	})

	return &session{
		cfg:       cfg,
		classroom: domain.NormalizeClassroomID(firstNonEmpty(classroomFlag, cfg.Sync.Classroom, defaultClassroom)),
		service:   service,
		locator:   locator,
		local:     local,
		records:   recordStore,
	}, nil
}

type stateView struct {
	Classroom   string                  `json:"classroom"`
	Mode        string                  `json:"mode"`
	Synced      bool                    `json:"synced"`
	Questions   []domain.Question       `json:"questions"`
	Submissions []domain.Submission     `json:"submissions"`
	Files       []domain.FileSubmission `json:"files"`
	Config      domain.SupportConfig    `json:"config"`
}

func (s *session) print(cmd *cobra.Command, synced bool) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stateView{
		Classroom:   s.classroom,
		Mode:        s.service.Mode().String(),
		Synced:      synced,
		Questions:   s.service.Questions(),
		Submissions: s.service.Submissions(),
		Files:       s.service.Files(),
		Config:      s.service.Config(),
	})
}

// mutate runs m and reports the state; a failed re-sync is reported, not returned as an error.
func (s *session) mutate(cmd *cobra.Command, m app.Mutation) error {
	ok := s.service.Mutate(cmd.Context(), m, s.classroom)
	if !ok {
		log.Printf("%s submitted; not yet visible (sync failed)", m.Kind)
	}
	return s.print(cmd, ok)
}

// NewSyncCmd performs one synchronization and prints the cached state.
func NewSyncCmd(configPath, classroom *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronize once and print the classroom state",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*configPath, *classroom)
			if err != nil {
				return err
			}
			return s.print(cmd, s.service.Sync(cmd.Context(), s.classroom))
		},
	}
}

// NewWatchCmd keeps the cache in sync on the configured interval, logging status changes.
func NewWatchCmd(configPath, classroom *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the authoritative backend and report sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*configPath, *classroom)
			if err != nil {
				return err
			}
			opts := []poller.Option{
				poller.WithStatusHook(func(status domain.SyncStatus) {
					log.Printf("sync %s: %s (%s)", s.classroom, status, s.service.Mode())
				}),
				poller.WithRefreshHook(func() {
					log.Printf("%s: %d questions, %d submissions, %d files",
						s.classroom, len(s.service.Questions()), len(s.service.Submissions()), len(s.service.Files()))
				}),
			}
			if s.cfg.Sync.Watch {
				opts = append(opts, poller.WithWatcher(s.local))
			}
			driver := poller.New(s.service, s.classroom, config.Duration(s.cfg.Sync.PollInterval, poller.DefaultInterval), opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return driver.Run(ctx)
		},
	}
}

// NewProbeCmd reports whether the local backend is reachable from this device.
func NewProbeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check whether the local backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*configPath, "")
			if err != nil {
				return err
			}
			reachable := s.locator.ProbeLocal(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "local backend %s reachable=%t\n", s.local.BaseURL(), reachable)
			return nil
		},
	}
}

// NewQuestionCmd groups the admin question mutations.
func NewQuestionCmd(configPath, classroom *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Add or delete questions",
	}

	add := &cobra.Command{
		Use:   "add <question.json>",
		Short: "Add a question from a JSON file (id is generated when empty)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q domain.Question
			if err := readJSONFile(args[0], &q); err != nil {
				return err
			}
			if q.ID == "" {
				q.ID = domain.NewID()
			}
			if err := domain.ValidateQuestion(q); err != nil {
				return err
			}
			s, err := newSession(*configPath, *classroom)
			if err != nil {
				return err
			}
			s.service.Sync(cmd.Context(), s.classroom)
			return s.mutate(cmd, app.AddQuestion(q))
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a question and its submissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*configPath, *classroom)
			if err != nil {
				return err
			}
			s.service.Sync(cmd.Context(), s.classroom)
			return s.mutate(cmd, app.DeleteQuestion(args[0]))
		},
	}

	cmd.AddCommand(add, del)
	return cmd
}

// NewSubmitCmd answers a question as a student.
func NewSubmitCmd(configPath, classroom *string) *cobra.Command {
	var studentID, studentName string
	cmd := &cobra.Command{
		Use:   "submit <questionId> <answerIndex>",
		Short: "Submit an answer to a question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("answer index: %w", err)
			}
			s, err := newSession(*configPath, *classroom)
			if err != nil {
				return err
			}
			if !s.service.Sync(cmd.Context(), s.classroom) {
				return fmt.Errorf("classroom %s is not available", s.classroom)
			}
			var question *domain.Question
			for _, q := range s.service.Questions() {
				if q.ID == args[0] {
					question = &q
					break
				}
			}
			if question == nil {
				return fmt.Errorf("question %s: %w", args[0], domain.ErrNotFound)
			}
			sub := domain.NewSubmission(*question, studentID, studentName, answer, time.Now().UTC())
			if err := domain.ValidateSubmission(sub); err != nil {
				return err
			}
			return s.mutate(cmd, app.AddSubmission(sub))
		},
	}
	cmd.Flags().StringVar(&studentID, "student-id", "", "student id")
	cmd.Flags().StringVar(&studentName, "student-name", "", "student display name")
	_ = cmd.MarkFlagRequired("student-id")
	return cmd
}

// NewUploadCmd uploads a file as a student submission.
func NewUploadCmd(configPath, classroom *string) *cobra.Command {
	var studentID, studentName string
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file for the instructor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			fileType := mime.TypeByExtension(filepath.Ext(args[0]))
			if fileType == "" {
				fileType = http.DetectContentType(data)
			}
			mediaType, _, err := mime.ParseMediaType(fileType)
			if err != nil {
				mediaType = "application/octet-stream"
			}
			file := domain.FileSubmission{
				ID:          domain.NewID(),
				StudentID:   studentID,
				StudentName: studentName,
				FileName:    filepath.Base(args[0]),
				FileType:    mediaType,
				FileData:    "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data),
				Timestamp:   time.Now().UTC(),
			}
			if err := domain.ValidateFile(file); err != nil {
				return err
			}
			s, err := newSession(*configPath, *classroom)
			if err != nil {
				return err
			}
			s.service.Sync(cmd.Context(), s.classroom)
			return s.mutate(cmd, app.AddFile(file))
		},
	}
	cmd.Flags().StringVar(&studentID, "student-id", "", "student id")
	cmd.Flags().StringVar(&studentName, "student-name", "", "student display name")
	_ = cmd.MarkFlagRequired("student-id")
	return cmd
}

// NewConfigCmd reads or updates the device's support configuration.
func NewConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the support configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the support configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*configPath, "")
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(s.service.Config())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-meet-link <url>",
		Short: "Save the live-call meeting link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*configPath, "")
			if err != nil {
				return err
			}
			if err := s.service.SaveConfig(domain.SupportConfig{MeetLink: args[0]}); err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(s.service.Config())
		},
	})
	return cmd
}

// NewResetCmd forgets every classroom mapping and the saved configuration on this device.
func NewResetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear durable local records (classroom mappings and config)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*configPath, "")
			if err != nil {
				return err
			}
			if err := s.records.Clear(); err != nil {
				return err
			}
			s.service.Logout()
			log.Printf("cleared %s", s.records.Path())
			return nil
		},
	}
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

