package cli

import (
	"bufio"
	"context"
	"docbase-go/internal/model"
	"docbase-go/internal/view"
	"docbase-go/pkg/client"
	"docbase-go/pkg/log"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

var usersSearch string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List other users you can chat with",
	Args:  cobra.NoArgs,
	RunE:  runUsers,
}

var chatNoFollow bool

var chatCmd = &cobra.Command{
	Use:   "chat [user-id]",
	Short: "Open a chat thread with another user",
	Long: `Prints the thread history, then relays lines typed on stdin and messages
arriving from the other side until stdin closes or the process is interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

var attachCmd = &cobra.Command{
	Use:   "attach [file]",
	Short: "Upload an attachment for embedding in document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttach,
}

func init() {
	usersCmd.Flags().StringVarP(&usersSearch, "search", "s", "", "username filter")
	chatCmd.Flags().BoolVar(&chatNoFollow, "no-follow", false, "print the history and exit")

	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(attachCmd)
}

func runUsers(cmd *cobra.Command, _ []string) error {
	users, err := api.ListUsers(context.Background(), usersSearch)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", notLoggedIn(err))
	}
	if len(users) == 0 {
		cmd.Println("No users found.")
		return nil
	}
	for _, u := range users {
		cmd.Printf("  %-6d %-24s %s\n", u.ID, u.Username, u.Email)
	}
	return nil
}

// terminalThread 在终端上渲染聊天线程。
type terminalThread struct {
	api    *client.Client
	in     io.Reader
	out    io.Writer
	follow bool
}

func (t *terminalThread) printMessage(caller model.User, m model.ChatMessage) {
	who := fmt.Sprintf("user %d", m.SenderID)
	if m.SenderID == caller.ID {
		who = "me"
	}
	fmt.Fprintf(t.out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("01-02 15:04"), who, m.Content)
}

func (t *terminalThread) RenderThread(ctx context.Context, caller model.User, counterpartID uint) error {
	history, err := t.api.ChatHistory(ctx, counterpartID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Fprintln(t.out, "No messages yet.")
	}
	for _, m := range history {
		t.printMessage(caller, m)
	}
	if !t.follow {
		return nil
	}

	stream, err := t.api.DialChat(ctx, counterpartID)
	if err != nil {
		return err
	}
	defer stream.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			m, err := stream.Recv()
			if err != nil {
				if ctx.Err() == nil {
					log.Debugf("chat stream closed: %v", err)
				}
				return
			}
			t.printMessage(caller, *m)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(t.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = stream.Close()
			wg.Wait()
			return nil
		case line, ok := <-lines:
			if !ok {
				_ = stream.Close()
				wg.Wait()
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := stream.Send(line); err != nil {
				return err
			}
		}
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	renderer := &terminalThread{api: api, in: cmd.InOrStdin(), out: cmd.OutOrStdout(), follow: !chatNoFollow}
	chat := view.NewChatView(api, renderer)
	err := chat.Open(ctx, args[0])
	switch {
	case chat.State().Phase == view.ChatRedirectLogin:
		return errors.New("not logged in: run 'docctl login <username>' first")
	case chat.State().RouteError != "":
		return errors.New(chat.State().RouteError)
	case err != nil:
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}

func runAttach(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	att, err := api.UploadAttachment(context.Background(), filepath.Base(f.Name()), f)
	if err != nil {
		return fmt.Errorf("upload failed: %w", notLoggedIn(err))
	}
	cmd.Printf("Uploaded %s (%d bytes)\n", att.Name, att.Size)
	cmd.Printf("Object:  %s\n", att.ObjectName)
	cmd.Printf("URL:     %s\n", att.URL)
	return nil
}
