package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/consent-management/internal/feedback"
	"github.com/frahmantamala/consent-management/internal/user"
)

var (
	profileName   string
	profilePhone  string
	profileAvatar string

	feedbackName     string
	feedbackEmail    string
	feedbackCategory string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		profile, err := svc.users.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s>\n", profile.Name, profile.Email)
		if profile.Phone != "" {
			fmt.Printf("phone: %s\n", profile.Phone)
		}
		return nil
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		updated, err := svc.users.UpdateProfile(ctx, user.UpdateProfileDTO{
			Name:      profileName,
			Phone:     profilePhone,
			AvatarURL: profileAvatar,
		})
		if err != nil {
			return err
		}
		fmt.Printf("profile updated: %s\n", updated.Name)
		return nil
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <message>...",
	Short: "Send feedback to the platform team",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		created, err := svc.feedback.Submit(ctx, feedback.SubmitFeedbackDTO{
			Name:     feedbackName,
			Email:    feedbackEmail,
			Category: feedbackCategory,
			Message:  strings.Join(args, " "),
		})
		if err != nil {
			return err
		}
		fmt.Printf("feedback #%d submitted\n", created.ID)
		return nil
	},
}

func init() {
	profileUpdateCmd.Flags().StringVar(&profileName, "name", "", "display name")
	profileUpdateCmd.Flags().StringVar(&profilePhone, "phone", "", "phone number")
	profileUpdateCmd.Flags().StringVar(&profileAvatar, "avatar", "", "avatar URL")
	profileCmd.AddCommand(profileUpdateCmd)

	feedbackCmd.Flags().StringVar(&feedbackName, "name", "", "your name")
	feedbackCmd.Flags().StringVar(&feedbackEmail, "email", "", "your email")
	feedbackCmd.Flags().StringVar(&feedbackCategory, "category", "general", "feedback category")
}
