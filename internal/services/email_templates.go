package services

import (
	"html/template"
)

// The four transactional templates. Wording follows the product's Spanish
// copy; layout is intentionally simple inline-styled HTML that renders in
// every mail client.

const welcomeSubject = "¡Bienvenido a ImpulseML! Tu cuenta ha sido creada exitosamente"

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333;">¡Bienvenido a ImpulseML!</h1>
  <p>Hola <strong>{{.Name}}</strong>,</p>
  <p>¡Tu cuenta en ImpulseML ha sido creada exitosamente! Ahora tienes acceso a las herramientas
  más avanzadas para analizar y optimizar tus ventas en MercadoLibre Uruguay.</p>
  <ul>
    <li><strong>Conectar tu cuenta de MercadoLibre</strong> para acceder a datos reales</li>
    <li><strong>Analizar productos de la competencia</strong> y descubrir oportunidades</li>
    <li><strong>Monitorear el rendimiento</strong> de tus productos</li>
  </ul>
  <p><strong>🎉 Prueba gratuita de 7 días:</strong> tu prueba gratuita ya está activa.</p>
  <p style="text-align: center;">
    <a href="{{.DashboardURL}}/dashboard" style="background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; font-weight: bold;">Acceder al Dashboard</a>
  </p>
  <p style="color: #666;">¡Gracias por elegir ImpulseML!<br><strong>El equipo de ImpulseML</strong></p>
</div>
`))

const passwordResetSubject = "Solicitud de cambio de contraseña - ImpulseML"

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333;">Solicitud de cambio de contraseña</h1>
  <p>Hola <strong>{{.Name}}</strong>,</p>
  <p>Hemos recibido una solicitud para cambiar la contraseña de tu cuenta en ImpulseML.</p>
  <p style="background: #fff3cd; padding: 15px; border-radius: 8px;"><strong>⚠️ Importante:</strong>
  si no solicitaste este cambio, puedes ignorar este email de forma segura. Tu contraseña no será modificada.</p>
  <p>Para proceder con el cambio, sigue el enlace que recibirás por separado desde el sistema de autenticación.</p>
  <p style="color: #666;">Saludos,<br><strong>El equipo de ImpulseML</strong></p>
</div>
`))

const subscriptionConfirmSubjectFmt = "¡Suscripción %s confirmada! - ImpulseML"

var subscriptionConfirmTemplate = template.Must(template.New("subscription_confirm").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333;">¡Suscripción Confirmada!</h1>
  <p>Hola <strong>{{.Name}}</strong>,</p>
  <p>¡Excelente! Tu suscripción al plan <strong>{{.Plan}}</strong> ha sido confirmada exitosamente.</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr><td style="padding: 8px 0; color: #666;">Plan:</td><td style="font-weight: bold;">{{.Plan}}</td></tr>
    <tr><td style="padding: 8px 0; color: #666;">Precio:</td><td style="font-weight: bold;">{{.Amount}} / mes</td></tr>
    <tr><td style="padding: 8px 0; color: #666;">Estado:</td><td style="color: #00b894; font-weight: bold;">Activa</td></tr>
  </table>
  <p><strong>🚀 ¡Ya tienes acceso completo!</strong> Tu próximo cobro será procesado automáticamente el próximo mes.</p>
  <p style="text-align: center;">
    <a href="{{.DashboardURL}}/dashboard" style="background: #00d4aa; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; font-weight: bold;">Ir al Dashboard</a>
  </p>
  <p style="color: #666;">¡Gracias por tu confianza!<br><strong>El equipo de ImpulseML</strong></p>
</div>
`))

const subscriptionCancelSubject = "Cancelación de suscripción confirmada - ImpulseML"

var subscriptionCancelTemplate = template.Must(template.New("subscription_cancel").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333;">Suscripción Cancelada</h1>
  <p>Hola <strong>{{.Name}}</strong>,</p>
  <p>Confirmamos que tu suscripción a ImpulseML ha sido cancelada. Mantendrás acceso a las
  funciones premium hasta el final de tu período de facturación actual.</p>
  <p>Puedes reactivar tu suscripción en cualquier momento desde la sección de facturación de tu cuenta.</p>
  <p style="color: #666;">Esperamos verte de nuevo pronto,<br><strong>El equipo de ImpulseML</strong></p>
</div>
`))
