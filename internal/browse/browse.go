// Package browse implements the interactive per-directory prompts used to
// pick remote or local entries for download, upload and delete.
package browse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cshum/drive-sync/internal/sync"
	"github.com/cshum/drive-sync/pkg/utils"
	"github.com/cshum/drive-sync/providerapi"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

const selectPrompt = "Select number to proceed or 'b' to go back: "

// ErrQuit is returned when the user asks to leave the browser, or input ends.
var ErrQuit = errors.New("browse: quit")

// errBack goes up one directory level.
var errBack = errors.New("browse: back")

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	warnColor   = color.New(color.FgRed)
	doneColor   = color.New(color.FgYellow)
)

type Browser struct {
	sm     *sync.SyncManager
	in     *bufio.Reader
	out    io.Writer
	logger *logrus.Logger
}

// NewBrowser reads answers from in and writes listings and prompts to out.
// Callers sharing the input stream pass the same *bufio.Reader.
func NewBrowser(sm *sync.SyncManager, in *bufio.Reader, out io.Writer) *Browser {
	return &Browser{
		sm:     sm,
		in:     in,
		out:    out,
		logger: logrus.StandardLogger(),
	}
}

func (b *Browser) SetLogger(l *logrus.Logger) {
	b.logger = l
}

// Prompt prints question and returns the trimmed answer. End of input
// yields ErrQuit.
func (b *Browser) Prompt(question string) (string, error) {
	fmt.Fprint(b.out, question)
	line, err := b.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(b.out)
			return "", ErrQuit
		}
		if !errors.Is(err, io.EOF) {
			return "", err
		}
	}
	return strings.TrimSpace(line), nil
}

// choose reads a 1-based selection among n entries and returns its index.
func (b *Browser) choose(n int) (int, error) {
	for {
		answer, err := b.Prompt(selectPrompt)
		if err != nil {
			return 0, err
		}
		switch strings.ToLower(answer) {
		case "b":
			return 0, errBack
		case "q":
			return 0, ErrQuit
		}
		i, err := strconv.Atoi(answer)
		if err != nil || i < 1 || i > n {
			warnColor.Fprintln(b.out, "Invalid choice.")
			continue
		}
		return i - 1, nil
	}
}

// folderAction asks what to do with a folder and returns the lowercased
// answer.
func (b *Browser) folderAction(name, question string) (string, error) {
	answer, err := b.Prompt(fmt.Sprintf("'%s' is a folder. %s ", name, question))
	if err != nil {
		return "", err
	}
	return strings.ToLower(answer), nil
}

func (b *Browser) listRemote(ctx context.Context, folderID string) ([]providerapi.Node, error) {
	nodes, err := b.sm.Provider().ListChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		fmt.Fprintln(b.out, "No items found.")
		return nil, nil
	}
	headerColor.Fprintf(b.out, "\n%s folder: %s\n", b.sm.Provider().Name(), displayID(folderID))
	for i, node := range nodes {
		fmt.Fprintf(b.out, "%d. %s (%s)\n", i+1, node.Name, node.Kind)
	}
	return nodes, nil
}

// ForDownload browses folderID, downloading picked entries under localBase.
// Browsing into a subfolder extends localBase with the folder name.
func (b *Browser) ForDownload(ctx context.Context, folderID, localBase string) error {
	for {
		nodes, err := b.listRemote(ctx, folderID)
		if err != nil || len(nodes) == 0 {
			return err
		}
		i, err := b.choose(len(nodes))
		if errors.Is(err, errBack) {
			return nil
		}
		if err != nil {
			return err
		}

		node := nodes[i]
		path := filepath.Join(localBase, sync.LocalName(node.Name))
		if !node.IsFolder() {
			err = b.sm.DownloadFile(ctx, node.ID, path)
		} else {
			var action string
			if action, err = b.folderAction(node.Name, "[B]rowse or [D]ownload?"); err != nil {
				return err
			}
			switch action {
			case "b":
				err = b.ForDownload(ctx, node.ID, path)
			case "d":
				err = b.sm.DownloadFolder(ctx, node.ID, path)
			}
		}
		if err != nil {
			return err
		}
	}
}

// LocalForUpload browses the local directory localPath, uploading picked
// entries into the remote folder parentID.
func (b *Browser) LocalForUpload(ctx context.Context, localPath, parentID string) error {
	for {
		entries, err := utils.ListDir(localPath)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(b.out, "No items found.")
			return nil
		}
		headerColor.Fprintf(b.out, "\nLocal directory: %s\n", localPath)
		for i, entry := range entries {
			if entry.IsDir {
				fmt.Fprintf(b.out, "%d. %s [Folder]\n", i+1, entry.Name)
			} else {
				fmt.Fprintf(b.out, "%d. %s\n", i+1, entry.Name)
			}
		}

		i, err := b.choose(len(entries))
		if errors.Is(err, errBack) {
			return nil
		}
		if err != nil {
			return err
		}

		entry := entries[i]
		if !entry.IsDir {
			_, err = b.sm.UploadFile(ctx, entry.Path, parentID)
		} else {
			var action string
			if action, err = b.folderAction(entry.Name, "[B]rowse or [U]pload?"); err != nil {
				return err
			}
			switch action {
			case "b":
				err = b.LocalForUpload(ctx, entry.Path, parentID)
			case "u":
				_, err = b.sm.UploadFolder(ctx, entry.Path, parentID)
			}
		}
		if err != nil {
			return err
		}
	}
}

// ForDelete browses folderID and deletes picked entries after confirmation.
func (b *Browser) ForDelete(ctx context.Context, folderID string) error {
	for {
		nodes, err := b.listRemote(ctx, folderID)
		if err != nil || len(nodes) == 0 {
			return err
		}
		i, err := b.choose(len(nodes))
		if errors.Is(err, errBack) {
			return nil
		}
		if err != nil {
			return err
		}

		node := nodes[i]
		if node.IsFolder() {
			action, err := b.folderAction(node.Name, "[B]rowse or [D]elete?")
			if err != nil {
				return err
			}
			switch action {
			case "b":
				err = b.ForDelete(ctx, node.ID)
			case "d":
				err = b.confirmDelete(ctx, node)
			}
			if err != nil {
				return err
			}
			continue
		}
		if err := b.confirmDelete(ctx, node); err != nil {
			return err
		}
	}
}

func (b *Browser) confirmDelete(ctx context.Context, node providerapi.Node) error {
	kind := node.Kind.String()
	answer, err := b.Prompt(fmt.Sprintf("Are you sure you want to delete %s '%s'? (y/n): ", strings.ToLower(kind), node.Name))
	if err != nil {
		return err
	}
	if strings.ToLower(answer) != "y" {
		return nil
	}
	if err := b.sm.Provider().Delete(ctx, node.ID); err != nil {
		return err
	}
	b.logger.WithFields(logrus.Fields{
		"id":   node.ID,
		"name": node.Name,
		"kind": kind,
	}).Debug("Deleted remote node")
	doneColor.Fprintf(b.out, "%s deleted.\n", kind)
	return nil
}

func displayID(id string) string {
	if id == providerapi.RootID {
		return "root"
	}
	return id
}
